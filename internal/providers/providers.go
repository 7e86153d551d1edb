package providers

import (
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/providers/process"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/providers/terminal"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/providers/watch"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/service"
)

// Register adds every provider to the registry.
func Register(registry *service.Registry, sessions terminal.Sessions, supervisor process.Supervisor, watcher watch.Watcher) error {
	for _, p := range []service.Provider{
		terminal.NewProvider(sessions),
		process.NewProvider(supervisor),
		watch.NewProvider(watcher),
	} {
		if err := registry.Register(p); err != nil {
			return err
		}
	}
	return nil
}
