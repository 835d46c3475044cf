package speech

import "testing"

func TestChooseVoicePrefersMarkerMatch(t *testing.T) {
	voices := []Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Google US English", Lang: "en-US"},
		{Name: "Amelie", Lang: "fr-FR", Default: true},
	}
	got := ChooseVoice(voices, "en", []string{"Female", "Google US English"})
	if got != "Google US English" {
		t.Fatalf("ChooseVoice() = %q, want marker match", got)
	}
}

func TestChooseVoiceFallsBackToFirstInLanguage(t *testing.T) {
	voices := []Voice{
		{Name: "Amelie", Lang: "fr-FR"},
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Karen", Lang: "en-AU"},
	}
	got := ChooseVoice(voices, "en", []string{"Zira"})
	if got != "Daniel" {
		t.Fatalf("ChooseVoice() = %q, want first english voice", got)
	}
}

func TestChooseVoiceEmptyMeansPlatformDefault(t *testing.T) {
	if got := ChooseVoice(nil, "en", []string{"Female"}); got != "" {
		t.Fatalf("ChooseVoice(nil) = %q, want empty", got)
	}
	voices := []Voice{{Name: "Amelie", Lang: "fr-FR"}}
	if got := ChooseVoice(voices, "en", nil); got != "" {
		t.Fatalf("ChooseVoice() = %q, want empty when no language match", got)
	}
}
