package sapi

import (
	"testing"

	"github.com/go-ole/go-ole"
)

func TestNew(t *testing.T) {
	b := New("HKEY_LOCAL_MACHINE\\...\\TTS_MS_EN-US_ZIRA_11.0")
	if b == nil {
		t.Fatal("expected New to return a backend")
	}
	if b.Name() != "sapi" {
		t.Errorf("Name() = %q, want sapi", b.Name())
	}
}

func TestSetVoice(t *testing.T) {
	b := New("")
	b.SetVoice("some-voice-id")
	if b.voiceID != "some-voice-id" {
		t.Errorf("voiceID = %q after SetVoice", b.voiceID)
	}
}

func TestSpeakFlags(t *testing.T) {
	if speakFlags(true) != 0 {
		t.Errorf("synchronous speech should use SVSFDefault, got %d", speakFlags(true))
	}
	if speakFlags(false) != 1 {
		t.Errorf("asynchronous speech should use SVSFlagsAsync, got %d", speakFlags(false))
	}
}

func TestGetVariantInt(t *testing.T) {
	b := New("")

	v32 := ole.NewVariant(ole.VT_I4, 32)
	if b.getVariantInt(&v32) != 32 {
		t.Errorf("expected 32, got %d", b.getVariantInt(&v32))
	}

	zero := ole.NewVariant(ole.VT_I4, 0)
	if b.getVariantInt(&zero) != 0 {
		t.Errorf("expected 0, got %d", b.getVariantInt(&zero))
	}
}
