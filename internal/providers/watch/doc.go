// Package watch exposes the directory watcher as the "watch" service.
// Changes are published as file-changed events.
package watch
