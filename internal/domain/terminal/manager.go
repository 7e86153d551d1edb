package terminal

import (
	"context"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/shell"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/id"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

// Config tunes session defaults.
type Config struct {
	DefaultCols uint16
	DefaultRows uint16
	ReadChunk   int
	ExitGrace   time.Duration
	HangupGrace time.Duration
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		DefaultCols: 80,
		DefaultRows: 24,
		ReadChunk:   4096,
		ExitGrace:   2 * time.Second,
		HangupGrace: 250 * time.Millisecond,
	}
}

// Manager is the registry of live terminal sessions.
type Manager struct {
	sessions sync.Map // map[id.SessionID]*Session
	bus      eventbus.Publisher
	shells   *shell.Resolver
	profile  platform.Profile
	cfg      Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	readers  sync.WaitGroup
}

// NewManager creates a session manager that reports output on bus.
func NewManager(bus eventbus.Publisher, logger *zap.Logger, cfg Config) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.DefaultCols == 0 {
		cfg.DefaultCols = defaults.DefaultCols
	}
	if cfg.DefaultRows == 0 {
		cfg.DefaultRows = defaults.DefaultRows
	}
	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = defaults.ReadChunk
	}
	if cfg.ExitGrace <= 0 {
		cfg.ExitGrace = defaults.ExitGrace
	}
	if cfg.HangupGrace <= 0 {
		cfg.HangupGrace = defaults.HangupGrace
	}

	return &Manager{
		bus:     bus,
		shells:  shell.NewResolver(),
		profile: platform.Current(),
		cfg:     cfg,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithResolver replaces the shell resolver.
func (m *Manager) WithResolver(r *shell.Resolver) *Manager {
	m.shells = r
	return m
}

// Create spawns a shell attached to a new PTY and returns its token.
func (m *Manager) Create(opts CreateOptions) (id.SessionID, error) {
	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = m.cfg.DefaultCols
	}
	if rows == 0 {
		rows = m.cfg.DefaultRows
	}

	dir := opts.WorkingDir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		}
	}

	shellPath := m.shells.Resolve(opts.Shell)

	cmd := exec.Command(shellPath)
	cmd.Dir = dir
	cmd.Env = childEnv(os.Environ(), m.profile)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return "", errdefs.Wrap(errdefs.KindSpawn, "terminal.create", err, "failed to start %s", shellPath)
	}
	if master, err := pollable(ptmx); err != nil {
		m.logger.Warn("pty master stays in blocking mode", zap.Error(err))
	} else {
		ptmx = master
	}

	session := &Session{
		ID:         id.NewSessionID(),
		Shell:      shellPath,
		WorkingDir: dir,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		cols:       cols,
		rows:       rows,
		procDone:   make(chan struct{}),
	}

	m.sessions.Store(session.ID, session)
	m.metrics.SessionCreated()

	go m.waitProcess(session)

	m.readers.Add(1)
	go m.readOutput(session)

	m.logger.Info("terminal session created",
		zap.String("session_id", session.ID.String()),
		zap.String("shell", shellPath),
		zap.String("dir", dir),
		zap.Int("pid", cmd.Process.Pid),
	)

	return session.ID, nil
}

// Write sends input to a session.
func (m *Manager) Write(sid id.SessionID, data []byte) error {
	session, err := m.get("terminal.write", sid)
	if err != nil {
		return err
	}

	session.writeMu.Lock()
	defer session.writeMu.Unlock()

	if _, err := session.ptmx.Write(data); err != nil {
		return errdefs.Wrap(errdefs.KindIO, "terminal.write", err, "write to session %s failed", sid)
	}
	return nil
}

// Resize changes terminal dimensions.
func (m *Manager) Resize(sid id.SessionID, cols, rows uint16) error {
	session, err := m.get("terminal.resize", sid)
	if err != nil {
		return err
	}
	if cols == 0 || rows == 0 {
		return errdefs.Invalid("terminal.resize", "invalid size %dx%d", cols, rows)
	}

	if err := setSize(session.ptmx, cols, rows); err != nil {
		return errdefs.Wrap(errdefs.KindIO, "terminal.resize", err, "resize of session %s failed", sid)
	}

	session.mu.Lock()
	session.cols, session.rows = cols, rows
	session.mu.Unlock()
	return nil
}

// Kill removes a session and terminates its shell together with every job
// it started. A second Kill of the same token reports NotFound.
func (m *Manager) Kill(sid id.SessionID) error {
	value, ok := m.sessions.LoadAndDelete(sid)
	if !ok {
		return errdefs.NotFound("terminal.kill", "session not found: %s", sid)
	}
	m.metrics.SessionRemoved()

	session := value.(*Session)
	if session.cmd.Process != nil {
		pid := session.cmd.Process.Pid
		hangup(pid)

		timer := time.NewTimer(m.cfg.HangupGrace)
		select {
		case <-session.procDone:
		case <-timer.C:
		}
		timer.Stop()

		// Background jobs live in their own process groups but keep the
		// shell's session id after the shell is gone.
		terminate(pid)
	}
	session.closePTY()

	m.logger.Info("terminal session killed", zap.String("session_id", sid.String()))
	return nil
}

// Get returns a snapshot of one session.
func (m *Manager) Get(sid id.SessionID) (SessionInfo, error) {
	session, err := m.get("terminal.get", sid)
	if err != nil {
		return SessionInfo{}, err
	}
	return session.info(), nil
}

// List returns all registered sessions, oldest first.
func (m *Manager) List() []SessionInfo {
	sessions := []SessionInfo{}
	m.sessions.Range(func(_, value interface{}) bool {
		sessions = append(sessions, value.(*Session).info())
		return true
	})

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ID < sessions[j].ID
	})
	return sessions
}

// Close kills every session and waits for their readers to finish.
func (m *Manager) Close(ctx context.Context) error {
	m.sessions.Range(func(key, _ interface{}) bool {
		_ = m.Kill(key.(id.SessionID))
		return true
	})

	done := make(chan struct{})
	go func() {
		m.readers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) get(op string, sid id.SessionID) (*Session, error) {
	value, ok := m.sessions.Load(sid)
	if !ok {
		return nil, errdefs.NotFound(op, "session not found: %s", sid)
	}
	return value.(*Session), nil
}

// readOutput streams PTY output until end of stream, then reports the exit
// exactly once. It never removes the session from the registry.
func (m *Manager) readOutput(session *Session) {
	defer m.readers.Done()

	sid := string(session.ID)
	var dec utf8Decoder
	buf := make([]byte, m.cfg.ReadChunk)

	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			m.metrics.AddTerminalBytes(n)
			if text := dec.Decode(buf[:n]); text != "" {
				m.bus.Publish(eventbus.TopicTerminalOutput, eventbus.TerminalOutput{SessionID: sid, Data: text})
			}
		}
		if err != nil || n == 0 {
			break
		}
	}

	session.closePTY()
	if text := dec.Flush(); text != "" {
		m.bus.Publish(eventbus.TopicTerminalOutput, eventbus.TerminalOutput{SessionID: sid, Data: text})
	}

	code := session.waitExit(m.cfg.ExitGrace)
	session.markExited(code)
	m.metrics.SessionExited()

	m.bus.Publish(eventbus.TopicTerminalExit, eventbus.TerminalExit{SessionID: sid, Code: code})
	m.logger.Info("terminal session exited", zap.String("session_id", sid), zap.Int("code", code))
}

func (m *Manager) waitProcess(session *Session) {
	_ = session.cmd.Wait()
	session.procCode = -1
	if session.cmd.ProcessState != nil {
		session.procCode = session.cmd.ProcessState.ExitCode()
	}
	close(session.procDone)
}
