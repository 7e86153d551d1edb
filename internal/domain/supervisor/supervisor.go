package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

const notInstalledMsg = "OpenCode not found. Please install it from https://opencode.ai/ or run: npm i -g opencode-ai@latest"

// CommandFactoryFunc builds the command for a spawn. The default is
// exec.Command; tests substitute a helper process.
type CommandFactoryFunc func(name string, args ...string) *exec.Cmd

// Supervisor owns at most one OpenCode server process.
type Supervisor struct {
	cfg        Config
	bus        eventbus.Publisher
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	locate     LocatorFunc
	newCommand CommandFactoryFunc
	probe      *resty.Client

	// lifecycle serializes Start, Stop and Restart.
	lifecycle sync.Mutex

	mu      sync.Mutex
	current *instance
	// starting is the instance spawned by an in-flight start that is not
	// yet accepting connections.
	starting *instance
}

// New creates a supervisor that reports on bus.
func New(bus eventbus.Publisher, logger *zap.Logger, cfg Config) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Supervisor{
		cfg:        cfg,
		bus:        bus,
		logger:     logger,
		locate:     Locate(platform.Current()),
		newCommand: exec.Command,
		probe:      newProbeClient(cfg.ProbeTimeout),
	}
}

// WithMetrics adds metrics tracking.
func (s *Supervisor) WithMetrics(metrics *monitoring.Metrics) *Supervisor {
	s.metrics = metrics
	return s
}

// WithLocator replaces executable discovery.
func (s *Supervisor) WithLocator(locate LocatorFunc) *Supervisor {
	s.locate = locate
	return s
}

// WithCommandFactory replaces process construction.
func (s *Supervisor) WithCommandFactory(factory CommandFactoryFunc) *Supervisor {
	s.newCommand = factory
	return s
}

// Status reports the tracked instance, an instance that is still starting,
// or an external server found on the default port window. It never changes
// supervisor state.
func (s *Supervisor) Status(ctx context.Context) Status {
	_, installed := s.locate()

	s.mu.Lock()
	inst, pending := s.current, s.starting
	s.mu.Unlock()

	if inst != nil && !inst.hasExited() {
		return Status{Running: true, Port: inst.port, Installed: installed, PID: inst.pid()}
	}
	if pending != nil && !pending.hasExited() {
		return Status{Starting: true, Port: pending.port, Installed: installed, PID: pending.pid()}
	}
	if port, ok := s.probeExternal(ctx); ok {
		return Status{Running: true, Port: port, Installed: installed, External: true}
	}
	return Status{Installed: installed}
}

// Start replaces any tracked instance with a new server in dir. A port of
// zero selects the configured default.
func (s *Supervisor) Start(ctx context.Context, dir string, port int) (Status, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.start(ctx, dir, port)
}

// Stop terminates the tracked instance, if any, and reports "stopped".
func (s *Supervisor) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()
	return nil
}

// Restart stops the tracked instance and starts a new one on the default port.
func (s *Supervisor) Restart(ctx context.Context, dir string) (Status, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stop()

	select {
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-time.After(s.cfg.RestartSettle):
	}
	return s.start(ctx, dir, 0)
}

// Close stops the tracked instance.
func (s *Supervisor) Close() error {
	return s.Stop()
}

func (s *Supervisor) start(ctx context.Context, dir string, port int) (Status, error) {
	const op = "process.start"

	if prev := s.take(); prev != nil {
		s.logger.Info("replacing running opencode server", zap.Int("pid", prev.pid()), zap.Int("port", prev.port))
		prev.terminate(s.cfg.StopTimeout)
		s.metrics.SetProcessRunning(false)
		s.bus.Publish(eventbus.TopicProcessStatus, eventbus.ProcessStatus{State: eventbus.StateStopped})
	}

	path, ok := s.locate()
	if !ok {
		s.metrics.RecordProcessStart("not_installed")
		return Status{}, errdefs.New(errdefs.KindNotInstalled, op, notInstalledMsg)
	}

	if port == 0 {
		port = s.cfg.DefaultPort
	}
	if port < 1 || port > 65535 {
		return Status{}, errdefs.Invalid(op, "invalid port %d", port)
	}
	free, ok := findFreePort(port, s.cfg.PortWindow)
	if !ok {
		s.metrics.RecordProcessStart("port_exhausted")
		return Status{}, errdefs.New(errdefs.KindPortExhausted, op,
			"Could not find an available port in range %d-%d. Please close other OpenCode instances or free up a port.",
			port, port+s.cfg.PortWindow-1)
	}

	if err := checkDir(op, dir); err != nil {
		return Status{}, err
	}

	inst, err := s.spawn(path, dir, free)
	if err != nil {
		s.metrics.RecordProcessStart("spawn_error")
		return Status{}, err
	}

	s.setStarting(inst)
	if err := s.awaitReady(ctx, inst); err != nil {
		s.setStarting(nil)
		s.metrics.RecordProcessStart(string(errdefs.KindOf(err)))
		return Status{}, err
	}

	s.mu.Lock()
	s.starting = nil
	if inst.hasExited() {
		s.mu.Unlock()
		s.metrics.RecordProcessStart("spawn_error")
		return Status{}, s.exitError(op, inst)
	}
	s.current = inst
	s.mu.Unlock()

	s.metrics.RecordProcessStart("success")
	s.metrics.SetProcessRunning(true)
	s.bus.Publish(eventbus.TopicProcessStatus, eventbus.ProcessStatus{State: eventbus.StateRunning, Port: free})
	s.logger.Info("opencode server started",
		zap.String("path", path),
		zap.String("dir", dir),
		zap.Int("port", free),
		zap.Int("pid", inst.pid()),
	)

	return Status{Running: true, Port: free, Installed: true, PID: inst.pid()}, nil
}

func (s *Supervisor) stop() {
	if inst := s.take(); inst != nil {
		inst.terminate(s.cfg.StopTimeout)
		s.logger.Info("opencode server stopped", zap.Int("pid", inst.pid()), zap.Int("port", inst.port))
	}
	s.metrics.SetProcessRunning(false)
	s.bus.Publish(eventbus.TopicProcessStatus, eventbus.ProcessStatus{State: eventbus.StateStopped})
}

func (s *Supervisor) setStarting(inst *instance) {
	s.mu.Lock()
	s.starting = inst
	s.mu.Unlock()
}

// take empties the slot and returns what was in it.
func (s *Supervisor) take() *instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst := s.current
	s.current = nil
	return inst
}

func checkDir(op, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errdefs.NotFound(op, "directory does not exist: %s", dir)
		}
		return errdefs.Wrap(errdefs.KindIO, op, err, "cannot access %s", dir)
	}
	if !info.IsDir() {
		return errdefs.Invalid(op, "path is not a directory: %s", dir)
	}
	return nil
}

func (s *Supervisor) spawn(path, dir string, port int) (*instance, error) {
	const op = "process.start"

	cmd := s.newCommand(path, "serve", "--port", strconv.Itoa(port))
	cmd.Dir = dir
	detach(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindIO, op, err, "create stdout pipe")
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, errdefs.Wrap(errdefs.KindIO, op, err, "create stderr pipe")
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if startErr != nil {
		_ = stdoutR.Close()
		_ = stderrR.Close()
		return nil, errdefs.Wrap(errdefs.KindSpawn, op, startErr,
			"failed to start OpenCode (path: %s, dir: %s)", path, dir)
	}

	inst := &instance{
		cmd:    cmd,
		path:   path,
		dir:    dir,
		port:   port,
		stdout: stdoutR,
		stderr: stderrR,
		tail:   newLogTail(s.cfg.LogTail),
		exited: make(chan struct{}),
	}

	inst.readers.Add(2)
	go s.forward(inst, stdoutR, eventbus.StreamStdout)
	go s.forward(inst, stderrR, eventbus.StreamStderr)
	go s.wait(inst)

	return inst, nil
}

func (s *Supervisor) forward(inst *instance, f *os.File, stream eventbus.Stream) {
	defer inst.readers.Done()
	defer f.Close()

	err := scanLines(f, func(line string) {
		inst.tail.add(fmt.Sprintf("[%s] %s", stream, line))
		s.bus.Publish(eventbus.TopicProcessLog, eventbus.ProcessLog{Type: stream, Message: line})
	})
	if err != nil {
		s.logger.Warn("opencode output stream failed",
			zap.String("stream", string(stream)),
			zap.Int("pid", inst.pid()),
			zap.Error(err),
		)
	}
}

// wait reaps the process. If the instance still owns the slot the exit was
// unexpected, so the slot is cleared and "stopped" is reported.
func (s *Supervisor) wait(inst *instance) {
	_ = inst.cmd.Wait()
	inst.exitCode = -1
	if inst.cmd.ProcessState != nil {
		inst.exitCode = inst.cmd.ProcessState.ExitCode()
	}
	close(inst.exited)

	s.mu.Lock()
	owned := s.current == inst
	if owned {
		s.current = nil
	}
	s.mu.Unlock()

	if owned {
		s.logger.Warn("opencode server exited unexpectedly",
			zap.Int("pid", inst.pid()),
			zap.Int("code", inst.exitCode),
		)
		s.metrics.SetProcessRunning(false)
		s.bus.Publish(eventbus.TopicProcessStatus, eventbus.ProcessStatus{State: eventbus.StateStopped})
	}
}

// awaitReady polls until the server accepts connections on its port.
func (s *Supervisor) awaitReady(ctx context.Context, inst *instance) error {
	const op = "process.start"

	deadline := time.NewTimer(s.cfg.StartTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if inst.hasExited() {
			return s.exitError(op, inst)
		}
		if portAccepting(inst.port, s.cfg.PollInterval) {
			return nil
		}

		select {
		case <-ctx.Done():
			inst.terminate(s.cfg.StopTimeout)
			return ctx.Err()
		case <-deadline.C:
			inst.terminate(s.cfg.StopTimeout)
			s.logger.Warn("opencode server start timed out", zap.Int("port", inst.port))
			return errdefs.New(errdefs.KindStartTimeout, op,
				"OpenCode did not start listening on port %d within %s", inst.port, s.cfg.StartTimeout)
		case <-inst.exited:
		case <-ticker.C:
		}
	}
}

// exitError describes an instance that died during start.
func (s *Supervisor) exitError(op string, inst *instance) error {
	inst.drain(time.Second)

	msg := fmt.Sprintf("OpenCode exited with code %d (path: %s, dir: %s)", inst.exitCode, inst.path, inst.dir)
	if lines := inst.tail.snapshot(); len(lines) > 0 {
		msg += "\n" + strings.Join(lines, "\n")
	}
	s.logger.Warn("opencode server failed to start", zap.Int("code", inst.exitCode), zap.String("path", inst.path))
	return errdefs.New(errdefs.KindSpawn, op, "%s", msg)
}
