// Package providers wires the domain managers into the service registry.
//
// Available Providers:
//   - terminal: PTY sessions
//   - process: the OpenCode server supervisor
//   - watch: the project directory watcher
//
// Provider Interface:
//   - Definition(): Returns service metadata and tool definitions
//   - Execute(): Executes a tool with parameters
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	err := providers.Register(registry, terminals, supervisor, watcher)
package providers
