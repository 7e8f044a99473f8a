package faceserver

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"lexiface/pkg/config"
)

// outputKeep caps the captured subprocess output ring.
const outputKeep = 100

// Manager supervises the external face rendering server process.
// At most one server is managed; Start is a no-op while one is running.
type Manager struct {
	mu       sync.Mutex
	cfg      config.FaceConfig
	cmd      *exec.Cmd
	running  bool
	external bool // server was already listening when we probed, never ours to kill
	exited   bool
	exitErr  error
	output   []string
}

// NewManager creates a manager for the configured face server.
func NewManager(cfg config.FaceConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Start ensures the face server is reachable. It returns true when the server
// is running, either spawned here or attached to an externally started one.
func (m *Manager) Start() bool {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	addr := m.addr()
	if portOpen(addr, time.Second) {
		slog.Info("Face server already listening, attaching", "addr", addr)
		m.mu.Lock()
		m.running = true
		m.external = true
		m.mu.Unlock()
		return true
	}

	if err := m.spawn(); err != nil {
		slog.Error("Failed to spawn face server", "error", err)
		return false
	}

	return m.awaitReady(addr)
}

// Stop terminates a server we spawned and clears the running state.
// Externally started servers are left untouched.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil && m.cmd.Process != nil && !m.exited {
		slog.Info("Stopping face server", "pid", m.cmd.Process.Pid)
		if err := m.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			// Windows has no SIGTERM
			_ = m.cmd.Process.Kill()
		}
	}
	m.cmd = nil
	m.running = false
	m.external = false
}

// Running reports whether the server is believed reachable. A spawned child
// that has exited since the last check flips the state back to false.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.external && m.exited {
		m.running = false
	}
	return m.running
}

// Endpoint returns the websocket URL the session layer connects to.
func (m *Manager) Endpoint() string {
	return fmt.Sprintf("ws://%s/socket", m.addr())
}

// FaceURL returns the browser URL serving the rendered face.
func (m *Manager) FaceURL() string {
	return fmt.Sprintf("http://%s/face/%s", m.addr(), m.cfg.Name)
}

func (m *Manager) addr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
}

func (m *Manager) spawn() error {
	args := []string{"-m", "pylips.face.start", "--host", m.cfg.Bind, "--port", strconv.Itoa(m.cfg.Port)}
	cmd := buildCmd(m.cfg.Python, args, m.cfg.ServerDir)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start '%s': %w", m.cfg.Python, err)
	}
	slog.Info("Face server starting", "pid", cmd.Process.Pid, "args", strings.Join(args, " "))

	m.mu.Lock()
	m.cmd = cmd
	m.exited = false
	m.exitErr = nil
	m.output = nil
	m.mu.Unlock()

	go m.streamReader(stdout)
	go m.streamReader(stderr)
	go func() {
		err := cmd.Wait()
		m.mu.Lock()
		m.exited = true
		m.exitErr = err
		m.mu.Unlock()
	}()

	return nil
}

// buildCmd assembles the server command. The server directory, when set,
// becomes the working directory and is prepended to PYTHONPATH so the
// face module resolves from a source checkout.
func buildCmd(python string, args []string, serverDir string) *exec.Cmd {
	cmd := exec.Command(python, args...)
	if serverDir != "" {
		cmd.Dir = serverDir
		pythonPath := serverDir
		if existing := os.Getenv("PYTHONPATH"); existing != "" {
			pythonPath += string(os.PathListSeparator) + existing
		}
		cmd.Env = append(os.Environ(), "PYTHONPATH="+pythonPath)
	}
	return cmd
}

func (m *Manager) awaitReady(addr string) bool {
	interval := time.Duration(m.cfg.PollInterval)
	if interval <= 0 {
		interval = time.Second
	}
	attempts := m.cfg.PollAttempts
	if attempts <= 0 {
		attempts = 10
	}

	for i := 0; i < attempts; i++ {
		m.mu.Lock()
		exited, exitErr := m.exited, m.exitErr
		m.mu.Unlock()
		if exited {
			slog.Error("Face server exited during startup", "error", exitErr, "output", m.tailOutput())
			m.mu.Lock()
			m.cmd = nil
			m.mu.Unlock()
			return false
		}

		if portOpen(addr, time.Second) {
			slog.Info("Face server ready", "addr", addr)
			m.mu.Lock()
			m.running = true
			m.mu.Unlock()
			return true
		}

		time.Sleep(interval)
	}

	// The process stays up; a later Start can still attach once it binds.
	slog.Error("Face server did not become ready", "attempts", attempts, "output", m.tailOutput())
	return false
}

func (m *Manager) streamReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		slog.Debug("Face server output", "line", line)
		m.mu.Lock()
		m.output = append(m.output, line)
		if len(m.output) > outputKeep {
			m.output = m.output[len(m.output)-outputKeep:]
		}
		m.mu.Unlock()
	}
}

func (m *Manager) tailOutput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.output, "\n")
}

func portOpen(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
