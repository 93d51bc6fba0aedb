package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/daemonctl"
	"reelforge/internal/preflight"
)

type doctorReport struct {
	DaemonRunning bool               `json:"daemonRunning"`
	Health        api.HealthResponse `json:"health"`
	Preflight     []api.CheckResult  `json:"preflight"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies, directories, and daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.NewController(client, cfg).Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			report := doctorReport{
				DaemonRunning: snapshot.Running,
				Health:        snapshot.Health,
				Preflight:     api.FromPreflight(preflight.RunAll(cmd.Context(), cfg)),
			}
			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDoctor(cmd, report)
			}
			if problems := countProblems(report); problems > 0 {
				return fmt.Errorf("%d check(s) failed", problems)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printDoctor(cmd *cobra.Command, report doctorReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	health := report.Health

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if report.DaemonRunning {
		fmt.Fprintln(out, renderStatusLine("reelforge", statusOK, fmt.Sprintf("Running (pid %d)", health.PID), colorize))
		fmt.Fprintln(out, renderStatusLine("Render slots", statusInfo, fmt.Sprintf("%d/%d busy", health.RunningJobs, health.JobCapacity), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("reelforge", statusWarn, "Not running (run `reelforge start`)", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Render backend", statusInfo, health.RenderBackend, colorize))
	fmt.Fprintln(out, renderStatusLine("Storage backend", statusInfo, health.StorageBackend, colorize))
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, health.DatabasePath, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, dep := range health.Dependencies {
		detail := "Ready"
		switch {
		case dep.Command != "" && dep.Version != "":
			detail = fmt.Sprintf("Ready (%s, version %s)", dep.Command, dep.Version)
		case dep.Command != "":
			detail = fmt.Sprintf("Ready (%s)", dep.Command)
		}
		if !dep.Available {
			detail = dep.Detail
			if detail == "" {
				detail = "not available"
			}
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, dependencyKind(dep), detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range report.Preflight {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}

	if len(health.Counts) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Jobs", colorize) {
			fmt.Fprintln(out, line)
		}
		statuses := make([]string, 0, len(health.Counts))
		for status := range health.Counts {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		rows := make([][]string, 0, len(statuses))
		for _, status := range statuses {
			rows = append(rows, []string{status, strconv.Itoa(health.Counts[status])})
		}
		fmt.Fprint(out, renderTable(columns("Status", "Count#"), rows))
		fmt.Fprintln(out)
	}
}

func countProblems(report doctorReport) int {
	problems := 0
	for _, dep := range report.Health.Dependencies {
		if !dep.Available && !dep.Optional {
			problems++
		}
	}
	for _, check := range report.Preflight {
		if !check.Passed {
			problems++
		}
	}
	return problems
}
