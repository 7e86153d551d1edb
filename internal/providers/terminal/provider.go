package terminal

import (
	"context"

	domain "github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/terminal"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/id"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/utils"
)

// Sessions is the part of the session registry the provider drives.
type Sessions interface {
	Create(opts domain.CreateOptions) (id.SessionID, error)
	Write(sid id.SessionID, data []byte) error
	Resize(sid id.SessionID, cols, rows uint16) error
	Kill(sid id.SessionID) error
	List() []domain.SessionInfo
}

// Provider implements terminal session operations
type Provider struct {
	sessions Sessions
}

// NewProvider creates a new terminal provider
func NewProvider(sessions Sessions) *Provider {
	return &Provider{sessions: sessions}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:           "terminal",
		Name:         "Terminal Service",
		Description:  "Interactive shell sessions attached to pseudo-terminals",
		Category:     types.CategoryTerminal,
		Capabilities: []string{"pty", "shell", "resize", "sessions"},
		Tools:        p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(_ context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	switch toolID {
	case "terminal.create":
		return p.create(params)
	case "terminal.write":
		return p.write(params)
	case "terminal.resize":
		return p.resize(params)
	case "terminal.kill":
		return p.kill(params)
	case "terminal.list":
		return p.list()
	default:
		return nil, errdefs.NotFound("terminal", "unknown tool: %s", toolID)
	}
}

func (p *Provider) getTools() []types.Tool {
	sessionID := types.Parameter{Name: "id", Type: "string", Description: "Session id returned by terminal.create", Required: true}

	return []types.Tool{
		{
			ID:          "terminal.create",
			Name:        "Create Terminal Session",
			Description: "Spawn a shell attached to a new pseudo-terminal",
			Parameters: []types.Parameter{
				{Name: "working_dir", Type: "string", Description: "Initial working directory. Defaults to the user's home"},
				{Name: "cols", Type: "number", Description: "Width in columns. Defaults to 80"},
				{Name: "rows", Type: "number", Description: "Height in rows. Defaults to 24"},
				{Name: "shell", Type: "string", Description: "Preferred shell; falls back to the platform default"},
			},
			Returns: "session_id",
		},
		{
			ID:          "terminal.write",
			Name:        "Write to Terminal",
			Description: "Send input to a terminal session",
			Parameters: []types.Parameter{
				sessionID,
				{Name: "data", Type: "string", Description: "Input to send", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.resize",
			Name:        "Resize Terminal",
			Description: "Change terminal dimensions",
			Parameters: []types.Parameter{
				sessionID,
				{Name: "cols", Type: "number", Description: "New width in columns", Required: true},
				{Name: "rows", Type: "number", Description: "New height in rows", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.kill",
			Name:        "Kill Terminal Session",
			Description: "Terminate a session and forget its id",
			Parameters:  []types.Parameter{sessionID},
			Returns:     "success",
		},
		{
			ID:          "terminal.list",
			Name:        "List Terminal Sessions",
			Description: "List all registered sessions, including ones whose shell has exited",
			Parameters:  []types.Parameter{},
			Returns:     "sessions_list",
		},
	}
}

func (p *Provider) create(params map[string]interface{}) (*types.Result, error) {
	workingDir, err := utils.OptionalString(params, "working_dir")
	if err != nil {
		return nil, err
	}
	if err := utils.ValidatePath(workingDir, "working_dir", false); err != nil {
		return nil, err
	}
	shell, err := utils.OptionalString(params, "shell")
	if err != nil {
		return nil, err
	}
	cols, err := utils.Dimension(params, "cols")
	if err != nil {
		return nil, err
	}
	rows, err := utils.Dimension(params, "rows")
	if err != nil {
		return nil, err
	}

	sid, err := p.sessions.Create(domain.CreateOptions{
		WorkingDir: workingDir,
		Cols:       cols,
		Rows:       rows,
		Shell:      shell,
	})
	if err != nil {
		return nil, err
	}

	return types.Success(map[string]interface{}{"id": sid.String()}), nil
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	sid, err := sessionParam(params)
	if err != nil {
		return nil, err
	}
	data, err := utils.String(params, "data")
	if err != nil {
		return nil, err
	}
	if len(data) > utils.MaxInputSize {
		return nil, errdefs.Invalid("terminal.write", "input exceeds %d bytes", utils.MaxInputSize)
	}

	if err := p.sessions.Write(sid, []byte(data)); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"success": true}), nil
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	sid, err := sessionParam(params)
	if err != nil {
		return nil, err
	}
	cols, err := utils.RequiredDimension(params, "cols")
	if err != nil {
		return nil, err
	}
	rows, err := utils.RequiredDimension(params, "rows")
	if err != nil {
		return nil, err
	}

	if err := p.sessions.Resize(sid, cols, rows); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"success": true}), nil
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	sid, err := sessionParam(params)
	if err != nil {
		return nil, err
	}
	if err := p.sessions.Kill(sid); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"success": true}), nil
}

func (p *Provider) list() (*types.Result, error) {
	sessions := p.sessions.List()
	return types.Success(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	}), nil
}

func sessionParam(params map[string]interface{}) (id.SessionID, error) {
	raw, err := utils.String(params, "id")
	if err != nil {
		return "", err
	}
	if err := utils.ValidateID(raw, "id", true); err != nil {
		return "", err
	}
	return id.SessionID(raw), nil
}
