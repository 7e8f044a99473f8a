// Package audio plays synthesized speech through the default output device.
package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Service is the playback control surface used by the speech backends.
type Service interface {
	// Play starts playback of an audio file. onComplete fires when playback
	// finishes on its own, not when Stop cuts it short.
	Play(path string, onComplete func()) error
	// Stop halts current playback.
	Stop()
	// IsPlaying reports whether audio is currently playing.
	IsPlaying() bool
	// SetVolume sets playback volume (0.0 to 1.0).
	SetVolume(vol float64)
	// Volume returns the current volume level.
	Volume() float64
	// Shutdown stops playback and removes the last synthesized artifact.
	Shutdown()
}

// Manager implements Service using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	streamer           *effects.Volume
	track              beep.StreamSeekCloser
	volume             float64
	speakerInitialized bool
	sampleRate         beep.SampleRate
	lastFile           string
}

// New creates a Manager with the given initial volume.
func New(volume float64) *Manager {
	m := &Manager{volume: 1.0}
	m.SetVolume(volume)
	return m
}

// Play decodes and plays an audio file, replacing whatever is playing.
func (m *Manager) Play(path string, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	streamer, format, err := decodeStreamer(path)
	if err != nil {
		return err
	}

	if err := m.ensureSpeakerInitialized(streamer); err != nil {
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, m.sampleRate, streamer)
	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	ctrl := &beep.Ctrl{Streamer: volStreamer}
	m.streamer = volStreamer
	m.track = streamer
	m.ctrl = ctrl

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// Cleanup runs off the speaker thread
		go func() {
			m.mu.Lock()
			if m.ctrl == ctrl {
				m.ctrl = nil
				m.streamer = nil
				m.track = nil
			}
			m.mu.Unlock()
			streamer.Close()

			if onComplete != nil {
				onComplete()
			}
		}()
	})))

	// The finished utterance's file lingers until the next one starts
	if m.lastFile != "" && m.lastFile != path {
		if err := os.Remove(m.lastFile); err != nil && !os.IsNotExist(err) {
			slog.Warn("Audio: failed to remove previous artifact", "path", m.lastFile, "error", err)
		}
	}
	m.lastFile = path

	slog.Debug("Playing audio", "path", path)
	return nil
}

// Stop halts current playback. The completion callback does not fire.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.track != nil {
		m.track.Close()
		m.track = nil
	}
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
		m.streamer = nil
	}
}

func (m *Manager) ensureSpeakerInitialized(streamer beep.StreamSeekCloser) error {
	const targetSampleRate = 48000
	if !m.speakerInitialized {
		err := speaker.Init(beep.SampleRate(targetSampleRate), beep.SampleRate(targetSampleRate).N(time.Second/10))
		if err != nil {
			streamer.Close()
			slog.Error("Failed to initialize speaker", "error", err)
			return err
		}
		m.speakerInitialized = true
		m.sampleRate = beep.SampleRate(targetSampleRate)
	}
	return nil
}

// Shutdown stops playback and deletes any residual audio artifact.
func (m *Manager) Shutdown() {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastFile != "" {
		if err := os.Remove(m.lastFile); err != nil && !os.IsNotExist(err) {
			slog.Warn("Audio: failed to remove artifact on shutdown", "path", m.lastFile, "error", err)
		}
		m.lastFile = ""
	}
}

// IsPlaying reports whether audio is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// SetVolume sets playback volume, clamped to 0.0-1.0.
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns the current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

func decodeStreamer(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open audio file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}

	// espeak emits WAV, so try that first
	streamer, format, err := wav.Decode(f)
	if err == nil {
		return streamer, format, nil
	}

	// Reopen for the MP3 attempt, the failed decode leaves the offset uncertain
	f.Close()
	f, err = os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	streamer, format, err = mp3.Decode(f)
	if err != nil {
		f.Close()
		slog.Error("Failed to decode audio file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}

	return streamer, format, nil
}
