package supervisor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

const loopback = "127.0.0.1"

// findFreePort returns the first port in [start, start+window) that can be
// bound on the loopback interface.
func findFreePort(start, window int) (int, bool) {
	for port := start; port < start+window && port <= 65535; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(loopback, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, true
	}
	return 0, false
}

// portAccepting reports whether something accepts TCP connections on port.
func portAccepting(port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(loopback, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// newProbeClient builds the client used to detect OpenCode servers that
// this process did not start. Each probe is a single attempt.
func newProbeClient(timeout time.Duration) *resty.Client {
	pooled := retryablehttp.NewClient()
	pooled.RetryMax = 0
	pooled.Logger = nil

	client := resty.New()
	client.
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "lmms-lab-writer/1.0")
	client.SetTransport(pooled.HTTPClient.Transport)
	return client
}

// probeExternal looks for an OpenCode server answering /agent in the
// default port window.
func (s *Supervisor) probeExternal(ctx context.Context) (int, bool) {
	for port := s.cfg.DefaultPort; port < s.cfg.DefaultPort+s.cfg.PortWindow; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		resp, err := s.probe.R().
			SetContext(ctx).
			Get(fmt.Sprintf("http://%s:%d/agent", loopback, port))
		if err == nil && resp.IsSuccess() {
			return port, true
		}
	}
	return 0, false
}
