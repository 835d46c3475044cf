package speech

import "strings"

// Voice describes one synthesis voice reported by the client engine.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default"`
}

// ChooseVoice picks the narration voice by preference: a voice in the target
// language whose name contains one of the markers, else the first voice in
// that language, else empty (platform default). Best effort only; an empty
// result is not a failure.
func ChooseVoice(voices []Voice, langPrefix string, markers []string) string {
	langPrefix = strings.ToLower(strings.TrimSpace(langPrefix))
	if langPrefix == "" {
		return ""
	}

	var firstInLang string
	for _, v := range voices {
		if !strings.HasPrefix(strings.ToLower(v.Lang), langPrefix) {
			continue
		}
		if firstInLang == "" {
			firstInLang = v.Name
		}
		for _, marker := range markers {
			if marker != "" && strings.Contains(v.Name, marker) {
				return v.Name
			}
		}
	}
	return firstInLang
}
