package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// CheckFunc is a function that performs a health check.
// It returns nil if the check passes, or an error if it fails.
type CheckFunc func(ctx context.Context) error

// Probe represents a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // If true, a failure here should prevent application startup.
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes a list of probes and returns their results.
// It enforces a timeout for each check if the context doesn't already have one.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		start := time.Now()

		// Create a child context to ensure individual probes don't hang indefinitely
		// even if the parent context is long-lived.
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)

		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// AnalyzeResults aggregates the results and returns a combined error if critical probes failed.
// It also logs the results using the default slog logger.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	slog.Info("Startup Checks Summary")

	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
		}

		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		if r.Error != nil {
			slog.Error(msg, "error", r.Error)
			if r.Probe.Critical {
				criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
			}
		} else {
			slog.Info(msg)
		}
	}

	if len(criticalErrors) > 0 {
		return errors.Join(criticalErrors...)
	}

	return nil
}

// Binary returns a probe verifying that the named executable is on PATH.
func Binary(name, binary string, critical bool) Probe {
	return Probe{
		Name: name,
		Check: func(context.Context) error {
			if _, err := exec.LookPath(binary); err != nil {
				return fmt.Errorf("executable '%s' not found: %w", binary, err)
			}
			return nil
		},
		Critical: critical,
	}
}

// Dir returns a probe verifying that the given path exists and is a directory.
func Dir(name, path string, critical bool) Probe {
	return Probe{
		Name: name,
		Check: func(context.Context) error {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("directory '%s': %w", path, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("'%s' is not a directory", path)
			}
			return nil
		},
		Critical: critical,
	}
}

// WritableDir returns a probe verifying that the directory exists (creating it
// if needed) and accepts writes.
func WritableDir(name, path string, critical bool) Probe {
	return Probe{
		Name: name,
		Check: func(context.Context) error {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("directory '%s': %w", path, err)
			}
			marker := filepath.Join(path, ".probe")
			if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
				return fmt.Errorf("directory '%s' not writable: %w", path, err)
			}
			_ = os.Remove(marker)
			return nil
		},
		Critical: critical,
	}
}
