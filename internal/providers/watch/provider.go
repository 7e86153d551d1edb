package watch

import (
	"context"

	domain "github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/watch"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/utils"
)

// Watcher is the part of the watch manager the provider drives.
type Watcher interface {
	Watch(path string) error
	StopWatch() error
	Status() domain.Status
}

// Provider implements directory watch operations
type Provider struct {
	watcher Watcher
}

// NewProvider creates a new watch provider
func NewProvider(w Watcher) *Provider {
	return &Provider{watcher: w}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:           "watch",
		Name:         "Watch Service",
		Description:  "Recursive, debounced change notifications for one project directory",
		Category:     types.CategoryWatch,
		Capabilities: []string{"recursive", "debounce", "ignore"},
		Tools: []types.Tool{
			{
				ID:          "watch.start",
				Name:        "Watch Directory",
				Description: "Watch a directory recursively, replacing any active watch",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory to watch", Required: true},
				},
				Returns: "status",
			},
			{
				ID:          "watch.stop",
				Name:        "Stop Watching",
				Description: "Stop the active watch",
				Parameters:  []types.Parameter{},
				Returns:     "success",
			},
			{
				ID:          "watch.status",
				Name:        "Watch Status",
				Description: "Report the active watch root",
				Parameters:  []types.Parameter{},
				Returns:     "status",
			},
		},
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(_ context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	switch toolID {
	case "watch.start":
		path, err := utils.String(params, "path")
		if err != nil {
			return nil, err
		}
		if err := utils.ValidatePath(path, "path", true); err != nil {
			return nil, err
		}
		if err := p.watcher.Watch(path); err != nil {
			return nil, err
		}
		return statusResult(p.watcher.Status()), nil
	case "watch.stop":
		if err := p.watcher.StopWatch(); err != nil {
			return nil, err
		}
		return types.Success(map[string]interface{}{"success": true}), nil
	case "watch.status":
		return statusResult(p.watcher.Status()), nil
	default:
		return nil, errdefs.NotFound("watch", "unknown tool: %s", toolID)
	}
}

func statusResult(st domain.Status) *types.Result {
	return types.Success(map[string]interface{}{
		"active": st.Active,
		"root":   st.Root,
		"dirs":   st.Dirs,
	})
}
