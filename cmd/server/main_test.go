package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/config"
)

func notInstalled() (string, bool) { return "", false }

func TestDoctorText(t *testing.T) {
	cfg := config.Default()
	cfg.Process.ProbeTimeout = 50 * time.Millisecond

	var out bytes.Buffer
	require.NoError(t, runDoctor(context.Background(), &out, cfg, notInstalled, false))

	assert.Contains(t, out.String(), "shell:")
	assert.Contains(t, out.String(), "opencode:  not installed")
}

func TestDoctorJSON(t *testing.T) {
	cfg := config.Default()

	var out bytes.Buffer
	require.NoError(t, runDoctor(context.Background(), &out, cfg, func() (string, bool) {
		return "/opt/opencode/bin/opencode", true
	}, true))

	var r report
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, "/opt/opencode/bin/opencode", r.OpenCode)
	assert.True(t, r.Status.Installed)
	assert.NotEmpty(t, r.Shell)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("WRITER_SERVER_PORT", "9100")

	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--host", "0.0.0.0", "--dev"}))

	cfg, err := loadConfig(cmd, serveOptions{host: "0.0.0.0", dev: true})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigExplicitLevel(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--dev", "--log-level", "warn", "-p", "9200"}))

	cfg, err := loadConfig(cmd, serveOptions{dev: true, logLevel: "warn", port: "9200"})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "9200", cfg.Server.Port)
}

func TestRootHasSubcommands(t *testing.T) {
	root := newRootCmd()

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "doctor")
	assert.NotNil(t, root.Flags().Lookup("port"))
}
