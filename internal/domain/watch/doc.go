// Package watch keeps at most one recursive directory watch and reports
// debounced file-changed events relative to the watched root.
package watch
