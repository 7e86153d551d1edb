// Package service provides the registry that routes tool calls to providers.
//
// A tool ID has the form "service.operation"; the part before the first dot
// selects the provider, which then dispatches on the full ID.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(providers.NewTerminal(terminals))
//	result, err := registry.Execute(ctx, "terminal.create", params)
package service
