package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/englishpartner/eva/internal/conversation"
	"github.com/englishpartner/eva/internal/protocol"
	"github.com/englishpartner/eva/internal/session"
	"github.com/englishpartner/eva/internal/speech"
)

func (s *Server) handleConversationWS(w http.ResponseWriter, r *http.Request) {
	if s.configErr != "" {
		respondError(w, http.StatusServiceUnavailable, "config_error", s.configErr)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if sess.Status != session.StatusActive {
		respondError(w, http.StatusGone, "session_ended", "session is no longer active")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan conversation.Event, 64)
	outbound := make(chan any, 256)

	bridge := newWSBridge(sess.ID, sess.Topic, outbound, s.metrics, s.cfg.TargetLanguage, s.cfg.PreferredVoiceMarkers)
	ctrl := conversation.New(bridge, bridge, s.requestor, bridge, metricsObserver{metrics: s.metrics}, conversation.Config{
		HistoryWindow:       s.cfg.HistoryWindow,
		SpeakNoSpeechPrompt: s.cfg.SpeakNoSpeechPrompt,
		Topic:               sess.Topic,
	})

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = ctrl.Run(ctx, events)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					s.metrics.WSWriteErrors.WithLabelValues("write_json").Inc()
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			bridge.send(protocol.TypeErrorEvent, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sess.ID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}

		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}
		_ = s.sessions.Touch(sess.ID)

		ev, ok := s.translate(bridge, sess.ID, parsed)
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			break readLoop
		case events <- ev:
		}
	}

	cancel()
	close(events)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

// translate maps one parsed client message to a conversation event. Voice
// lists are absorbed by the bridge and produce no event.
func (s *Server) translate(bridge *wsBridge, sessionID string, parsed any) (conversation.Event, bool) {
	switch msg := parsed.(type) {
	case protocol.ClientControl:
		switch msg.Action {
		case protocol.ActionToggleCapture:
			return conversation.CaptureToggled{}, true
		case protocol.ActionReset:
			return conversation.ErrorReset{}, true
		case protocol.ActionSelectTopic:
			if err := s.sessions.SetTopic(sessionID, msg.Topic); err != nil {
				if err != session.ErrTopicSet {
					log.Printf("ws session=%s set topic: %v", sessionID, err)
				}
				return nil, false
			}
			bridge.setTopic(msg.Topic)
			s.metrics.SessionEvents.WithLabelValues("topic_selected").Inc()
			return conversation.TopicSelected{Topic: msg.Topic}, true
		}
		return nil, false
	case protocol.CaptureResult:
		return conversation.TranscriptFinal{Text: msg.Transcript}, true
	case protocol.CaptureError:
		code := speech.ParseErrorCode(msg.Code)
		s.metrics.CaptureErrors.WithLabelValues(string(code)).Inc()
		return conversation.CaptureFailed{Code: code}, true
	case protocol.CaptureEnded:
		return conversation.CaptureEnded{}, true
	case protocol.NarrationDone:
		return conversation.NarrationEnded{UtteranceID: msg.UtteranceID}, true
	case protocol.VoiceList:
		bridge.setVoices(msg.Voices)
		return nil, false
	default:
		return nil, false
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientControl:
		return m.Type, true
	case protocol.CaptureResult:
		return m.Type, true
	case protocol.CaptureError:
		return m.Type, true
	case protocol.CaptureEnded:
		return m.Type, true
	case protocol.NarrationDone:
		return m.Type, true
	case protocol.VoiceList:
		return m.Type, true
	case protocol.CaptureCommand:
		return m.Type, true
	case protocol.Speak:
		return m.Type, true
	case protocol.NarrationCancel:
		return m.Type, true
	case protocol.StateUpdate:
		return m.Type, true
	case protocol.MessageAppended:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
