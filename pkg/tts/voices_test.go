package tts

import "testing"

func TestPollyVoices(t *testing.T) {
	voices := PollyVoices()
	if len(voices) != 98 {
		t.Fatalf("expected 98 voices, got %d", len(voices))
	}
	if voices[0].Name != "Zeina" {
		t.Errorf("first voice = %q, want Zeina", voices[0].Name)
	}
	if voices[len(voices)-1].Name != "Gwyneth" {
		t.Errorf("last voice = %q, want Gwyneth", voices[len(voices)-1].Name)
	}
	for _, v := range voices {
		if v.ID != v.Name {
			t.Errorf("voice %q: ID %q does not match name", v.Name, v.ID)
		}
	}
}
