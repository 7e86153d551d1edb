// Package id generates the opaque identifiers handed to the UI.
//
// Identifiers are prefixed ULIDs (pty_01J..., req_01J...). ULIDs from one
// generator are strictly increasing, so a token is never handed out twice
// within a process lifetime.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a terminal session.
type SessionID string

// RequestID identifies an API request.
type RequestID string

const (
	SessionPrefix = "pty"
	RequestPrefix = "req"
)

// Generator generates monotonic ULIDs.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a terminal session token.
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a request ID.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (s SessionID) String() string { return string(s) }
func (r RequestID) String() string { return string(r) }

// Timestamp extracts the creation time of a prefixed ULID.
func Timestamp(prefixed string) (time.Time, error) {
	_, raw, ok := strings.Cut(prefixed, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("missing prefix: %s", prefixed)
	}
	u, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid id %s: %w", prefixed, err)
	}
	return ulid.Time(u.Time()), nil
}
