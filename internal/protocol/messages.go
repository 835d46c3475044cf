package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants. The browser client owns
// the vendor speech engines; this protocol carries commands to them and their
// events back.
type MessageType string

const (
	// Client to server.
	TypeClientControl MessageType = "client_control"
	TypeCaptureResult MessageType = "capture_result"
	TypeCaptureError  MessageType = "capture_error"
	TypeCaptureEnded  MessageType = "capture_ended"
	TypeNarrationDone MessageType = "narration_done"
	TypeVoiceList     MessageType = "voice_list"

	// Server to client.
	TypeCaptureStart    MessageType = "capture_start"
	TypeCaptureStop     MessageType = "capture_stop"
	TypeSpeak           MessageType = "speak"
	TypeNarrationCancel MessageType = "narration_cancel"
	TypeState           MessageType = "state"
	TypeMessage         MessageType = "message"
	TypeErrorEvent      MessageType = "error_event"
)

// Client control actions.
const (
	ActionToggleCapture = "toggle_capture"
	ActionSelectTopic   = "select_topic"
	ActionReset         = "reset"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
	Topic     string      `json:"topic,omitempty"`
}

type CaptureResult struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	// Transcript may be empty: a silent capture is a valid, benign event.
	Transcript string `json:"transcript"`
	TSMs       int64  `json:"ts_ms,omitempty"`
}

type CaptureError struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
}

type CaptureEnded struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type NarrationDone struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
	// Code is set when synthesis failed; failure counts as completion.
	Code string `json:"code,omitempty"`
}

type ReportedVoice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

type VoiceList struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id"`
	Voices    []ReportedVoice `json:"voices"`
}

type CaptureCommand struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Lang      string      `json:"lang,omitempty"`
}

type Speak struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	UtteranceID string      `json:"utterance_id"`
	Text        string      `json:"text"`
	Voice       string      `json:"voice,omitempty"`
	Lang        string      `json:"lang,omitempty"`
}

type NarrationCancel struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type StateUpdate struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Phase     string      `json:"phase"`
	Topic     string      `json:"topic,omitempty"`
}

type MessageAppended struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Role        string      `json:"role"`
	Text        string      `json:"text"`
	Correction  string      `json:"correction,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
	TSMs        int64       `json:"ts_ms"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage validates and decodes one client payload.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		switch msg.Action {
		case ActionToggleCapture, ActionReset:
		case ActionSelectTopic:
			if msg.Topic == "" {
				return nil, errors.New("select_topic requires a topic")
			}
		default:
			return nil, fmt.Errorf("unknown control action %q", msg.Action)
		}
		return msg, nil
	case TypeCaptureResult:
		var msg CaptureResult
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid capture_result")
		}
		return msg, nil
	case TypeCaptureError:
		var msg CaptureError
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Code == "" {
			return nil, errors.New("invalid capture_error")
		}
		return msg, nil
	case TypeCaptureEnded:
		var msg CaptureEnded
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid capture_ended")
		}
		return msg, nil
	case TypeNarrationDone:
		var msg NarrationDone
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.UtteranceID == "" {
			return nil, errors.New("invalid narration_done")
		}
		return msg, nil
	case TypeVoiceList:
		var msg VoiceList
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid voice_list")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
