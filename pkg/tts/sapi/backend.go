// Package sapi speaks through Windows SAPI5 via OLE. On other platforms
// object creation fails and the backend reports itself unavailable.
package sapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"lexiface/pkg/tts"
)

const (
	speakSync  = int32(0) // SVSFDefault, blocks until done
	speakAsync = int32(1) // SVSFlagsAsync
)

// Backend implements tts.Backend using Windows SAPI5.
type Backend struct {
	mu      sync.Mutex
	voiceID string

	checkOnce sync.Once
	available bool
}

// New creates a SAPI backend. voiceID selects a voice token by its exact
// registry id; empty keeps the system default.
func New(voiceID string) *Backend {
	return &Backend{voiceID: voiceID}
}

// Name identifies the backend in history records and logs.
func (b *Backend) Name() string { return "sapi" }

// SetVoice changes the voice applied to subsequent utterances.
func (b *Backend) SetVoice(voiceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.voiceID = voiceID
}

// Available probes for the SAPI.SpVoice COM class once and caches the result.
func (b *Backend) Available() bool {
	b.checkOnce.Do(func() {
		if err := ole.CoInitialize(0); err != nil {
			// Already initialized
		} else {
			defer ole.CoUninitialize()
		}

		unknown, err := oleutil.CreateObject("SAPI.SpVoice")
		if err != nil {
			return
		}
		unknown.Release()
		b.available = true
	})
	return b.available
}

// Speak voices the text through the default audio output. With wait set the
// call blocks until SAPI finishes the utterance.
func (b *Backend) Speak(ctx context.Context, text string, wait bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ole.CoInitialize(0); err != nil {
		// Already initialized
	} else {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	if b.voiceID != "" {
		b.setVoiceByID(voice, b.voiceID)
	}

	if _, err := oleutil.CallMethod(voice, "Speak", text, speakFlags(wait)); err != nil {
		return fmt.Errorf("Speak failed: %w", err)
	}
	return nil
}

// Voices lists the installed SAPI voice tokens.
func (b *Backend) Voices(ctx context.Context) ([]tts.Voice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ole.CoInitialize(0); err != nil {
	} else {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, err
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, err
	}
	defer voice.Release()

	// GetVoices returns ISpeechObjectTokens
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		tokensVar, err = oleutil.GetProperty(voice, "Voices")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voices collection: %w", err)
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return nil, fmt.Errorf("voices collection is nil")
	}
	defer tokens.Release()

	countVar, err := oleutil.GetProperty(tokens, "Count")
	if err != nil {
		return nil, fmt.Errorf("GetVoices Count failed: %w", err)
	}
	count := b.getVariantInt(countVar)

	var voices []tts.Voice
	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		if voice, ok := b.extractVoice(v); ok {
			voices = append(voices, voice)
		}
		return nil
	})

	if len(voices) == 0 {
		voices = b.fallbackManualEnum(tokens, count)
	}

	return voices, nil
}

func speakFlags(wait bool) int32 {
	if wait {
		return speakSync
	}
	return speakAsync
}

func (b *Backend) getVariantInt(v *ole.VARIANT) int {
	val := v.Value()
	if val == nil {
		return int(v.Val)
	}
	switch it := val.(type) {
	case int32:
		return int(it)
	case int64:
		return int(it)
	case int:
		return it
	case uint32:
		return int(it)
	default:
		return int(v.Val)
	}
}

func (b *Backend) extractVoice(v *ole.VARIANT) (tts.Voice, bool) {
	item := v.ToIDispatch()
	if item == nil {
		return tts.Voice{}, false
	}
	defer item.Release()

	idVar, idErr := oleutil.CallMethod(item, "GetId")
	descVar, descErr := oleutil.CallMethod(item, "GetDescription", int32(0))

	if idErr == nil && descErr == nil && idVar != nil && descVar != nil {
		return tts.Voice{
			ID:   idVar.ToString(),
			Name: descVar.ToString(),
		}, true
	}
	return tts.Voice{}, false
}

func (b *Backend) fallbackManualEnum(tokens *ole.IDispatch, count int) []tts.Voice {
	var voices []tts.Voice
	for i := 0; i < count; i++ {
		itemVar, err := oleutil.GetProperty(tokens, "Item", i)
		if err != nil {
			itemVar, err = oleutil.CallMethod(tokens, "Item", i)
		}
		if err != nil {
			continue
		}
		item := itemVar.ToIDispatch()
		if item == nil {
			continue
		}
		idVar, _ := oleutil.CallMethod(item, "GetId")
		descVar, _ := oleutil.CallMethod(item, "GetDescription", int32(0))
		if idVar != nil && descVar != nil {
			voices = append(voices, tts.Voice{
				ID:   idVar.ToString(),
				Name: descVar.ToString(),
			})
		}
		item.Release()
	}
	return voices
}

// setVoiceByID selects the voice token whose id matches exactly. No match
// silently keeps the current voice.
func (b *Backend) setVoiceByID(voice *ole.IDispatch, voiceID string) {
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == voiceID {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}
