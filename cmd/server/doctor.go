package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/shell"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/supervisor"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/config"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/server"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/platform"
)

// report is what doctor prints.
type report struct {
	OS       string            `json:"os"`
	Shell    string            `json:"shell"`
	OpenCode string            `json:"opencode,omitempty"`
	Status   supervisor.Status `json:"status"`
}

func newDoctorCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report the resolved shell and OpenCode installation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadOrDefault()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			return runDoctor(ctx, cmd.OutOrStdout(), cfg, supervisor.Locate(platform.Current()), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func runDoctor(ctx context.Context, out io.Writer, cfg *config.Config, locate supervisor.LocatorFunc, asJSON bool) error {
	bus := eventbus.New()
	defer bus.Close()

	sup := supervisor.New(bus, nil, server.SupervisorConfig(cfg.Process)).WithLocator(locate)
	defer sup.Close()

	r := report{
		OS:     platform.Current().OS,
		Shell:  shell.NewResolver().Resolve(""),
		Status: sup.Status(ctx),
	}
	if path, ok := locate(); ok {
		r.OpenCode = path
	}

	if asJSON {
		data, err := sonic.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "os:        %s\n", r.OS)
	fmt.Fprintf(out, "shell:     %s\n", r.Shell)
	if r.OpenCode == "" {
		fmt.Fprintln(out, "opencode:  not installed")
	} else {
		fmt.Fprintf(out, "opencode:  %s\n", r.OpenCode)
	}
	switch {
	case r.Status.Running && r.Status.External:
		fmt.Fprintf(out, "server:    external instance on port %d\n", r.Status.Port)
	case r.Status.Running:
		fmt.Fprintf(out, "server:    running on port %d (pid %d)\n", r.Status.Port, r.Status.PID)
	default:
		fmt.Fprintln(out, "server:    not running")
	}
	return nil
}
