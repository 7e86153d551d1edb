package process

import (
	"context"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/supervisor"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/utils"
)

// Supervisor is the part of the process supervisor the provider drives.
type Supervisor interface {
	Status(ctx context.Context) supervisor.Status
	Start(ctx context.Context, dir string, port int) (supervisor.Status, error)
	Stop() error
	Restart(ctx context.Context, dir string) (supervisor.Status, error)
	KillPort(ctx context.Context, port int) ([]int, error)
}

// Provider implements OpenCode server lifecycle operations
type Provider struct {
	supervisor Supervisor
}

// NewProvider creates a new process provider
func NewProvider(s Supervisor) *Provider {
	return &Provider{supervisor: s}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	dir := types.Parameter{Name: "dir", Type: "string", Description: "Project directory the server runs in", Required: true}

	return types.Service{
		ID:           "process",
		Name:         "OpenCode Process Service",
		Description:  "Supervises a single OpenCode server process",
		Category:     types.CategoryProcess,
		Capabilities: []string{"spawn", "supervise", "port-probe"},
		Tools: []types.Tool{
			{
				ID:          "process.status",
				Name:        "Server Status",
				Description: "Report whether an OpenCode server is running and whether it is installed",
				Parameters:  []types.Parameter{},
				Returns:     "status",
			},
			{
				ID:          "process.start",
				Name:        "Start Server",
				Description: "Start OpenCode in a directory, replacing any supervised instance",
				Parameters: []types.Parameter{
					dir,
					{Name: "port", Type: "number", Description: "First port to try. Defaults to 4096"},
				},
				Returns: "status",
			},
			{
				ID:          "process.stop",
				Name:        "Stop Server",
				Description: "Stop the supervised server. Does nothing when none is running",
				Parameters:  []types.Parameter{},
				Returns:     "success",
			},
			{
				ID:          "process.restart",
				Name:        "Restart Server",
				Description: "Stop the supervised server and start it again on the default port",
				Parameters:  []types.Parameter{dir},
				Returns:     "status",
			},
			{
				ID:          "process.kill_port",
				Name:        "Kill Port",
				Description: "Kill every process listening on a TCP port",
				Parameters: []types.Parameter{
					{Name: "port", Type: "number", Description: "TCP port", Required: true},
				},
				Returns: "pids",
			},
		},
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	switch toolID {
	case "process.status":
		return statusResult(p.supervisor.Status(ctx)), nil
	case "process.start":
		return p.start(ctx, params)
	case "process.stop":
		if err := p.supervisor.Stop(); err != nil {
			return nil, err
		}
		return types.Success(map[string]interface{}{"success": true}), nil
	case "process.restart":
		return p.restart(ctx, params)
	case "process.kill_port":
		return p.killPort(ctx, params)
	default:
		return nil, errdefs.NotFound("process", "unknown tool: %s", toolID)
	}
}

func (p *Provider) start(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	dir, err := dirParam(params)
	if err != nil {
		return nil, err
	}
	port, err := utils.OptionalInt(params, "port", 0)
	if err != nil {
		return nil, err
	}

	st, err := p.supervisor.Start(ctx, dir, port)
	if err != nil {
		return nil, err
	}
	return statusResult(st), nil
}

func (p *Provider) restart(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	dir, err := dirParam(params)
	if err != nil {
		return nil, err
	}
	st, err := p.supervisor.Restart(ctx, dir)
	if err != nil {
		return nil, err
	}
	return statusResult(st), nil
}

func (p *Provider) killPort(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	port, err := utils.Int(params, "port")
	if err != nil {
		return nil, err
	}
	pids, err := p.supervisor.KillPort(ctx, port)
	if err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"port": port, "pids": pids}), nil
}

func dirParam(params map[string]interface{}) (string, error) {
	dir, err := utils.String(params, "dir")
	if err != nil {
		return "", err
	}
	if err := utils.ValidatePath(dir, "dir", true); err != nil {
		return "", err
	}
	return dir, nil
}

func statusResult(st supervisor.Status) *types.Result {
	return types.Success(map[string]interface{}{
		"running":   st.Running,
		"port":      st.Port,
		"installed": st.Installed,
		"pid":       st.PID,
		"external":  st.External,
	})
}
