// Package espeak synthesizes speech with the espeak-ng command line tool.
// It is the last-resort backend when no face is up and SAPI is absent.
package espeak

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lexiface/pkg/audio"
	"lexiface/pkg/config"
	"lexiface/pkg/tts"
)

// Backend implements tts.Backend by shelling out to espeak-ng.
type Backend struct {
	cfg    config.EspeakConfig
	player audio.Service

	mu sync.Mutex // serializes synchronous utterances on the shared player

	checkOnce sync.Once
	available bool
}

// New creates an espeak backend that plays synchronous speech through player.
func New(cfg config.EspeakConfig, player audio.Service) *Backend {
	return &Backend{cfg: cfg, player: player}
}

// Name identifies the backend in history records and logs.
func (b *Backend) Name() string { return "espeak" }

// Available checks once that the espeak binary is on PATH.
func (b *Backend) Available() bool {
	b.checkOnce.Do(func() {
		_, err := exec.LookPath(b.binary())
		b.available = err == nil
	})
	return b.available
}

// Speak voices the text. With wait set it renders to a file and blocks on
// the shared player until playback finishes. Without it a detached one-shot
// espeak process speaks through its own audio output; the call returns
// immediately and failures are only logged.
func (b *Backend) Speak(ctx context.Context, text string, wait bool) error {
	if wait {
		return b.speakShared(ctx, text)
	}
	go func() {
		if err := b.speakOneShot(text); err != nil {
			slog.Warn("espeak: background utterance failed", "text", tts.Truncate(text, 32), "error", err)
		}
	}()
	return nil
}

// speakShared renders the utterance to a temp file and plays it through the
// shared audio service, holding the lock for the full duration so concurrent
// synchronous calls take turns.
func (b *Backend) speakShared(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := filepath.Join(os.TempDir(), "lexiface-"+uuid.NewString()+".wav")
	if err := b.synthesize(ctx, text, path); err != nil {
		return err
	}

	done := make(chan struct{})
	if err := b.player.Play(path, func() { close(done) }); err != nil {
		os.Remove(path)
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		b.player.Stop()
		return ctx.Err()
	}
}

// speakOneShot runs a separate espeak process that plays the utterance
// through its own audio output. It touches neither the lock nor the shared
// player, and cannot be cancelled once started.
func (b *Backend) speakOneShot(text string) error {
	cmd := exec.Command(b.binary(), b.args(text, "")...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak playback failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *Backend) synthesize(ctx context.Context, text, outputPath string) error {
	cmd := exec.CommandContext(ctx, b.binary(), b.args(text, outputPath)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak synthesis failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// args builds the espeak invocation. With outputPath set the audio is
// written as WAV instead of played. Text is passed as a positional
// argument, never through a shell.
func (b *Backend) args(text, outputPath string) []string {
	var args []string
	if outputPath != "" {
		args = append(args, "-w", outputPath)
	}
	if b.cfg.VoiceID != "" {
		args = append(args, "-v", b.cfg.VoiceID)
	}
	if b.cfg.SpeedWPM > 0 {
		args = append(args, "-s", strconv.Itoa(b.cfg.SpeedWPM))
	}
	return append(args, text)
}

func (b *Backend) binary() string {
	if b.cfg.Binary != "" {
		return b.cfg.Binary
	}
	return "espeak-ng"
}
