package httpapi

import "net/http"

type Topic struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// starterTopics is the fixed menu shown before a conversation begins.
var starterTopics = []Topic{
	{Name: "General Chat", Emoji: "💬"},
	{Name: "Travel", Emoji: "✈️"},
	{Name: "Food", Emoji: "🍔"},
	{Name: "Work", Emoji: "💼"},
	{Name: "Hobbies", Emoji: "🎨"},
	{Name: "Technology", Emoji: "💻"},
}

func (s *Server) handleListTopics(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"topics": starterTopics,
	})
}
