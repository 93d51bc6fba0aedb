package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/apiclient"
	"reelforge/internal/scene"
)

func newJobCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSubmitCommand(ctx),
		newStatusCommand(ctx),
		newJobsCommand(ctx),
		newJobCommand(ctx),
	}
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var title string
	var wait bool
	var asJSON bool
	var yamlInput bool

	cmd := &cobra.Command{
		Use:   "submit <script-file|->",
		Short: "Submit a scene script for rendering",
		Long: "Submit a scene script for rendering. The script is a JSON or YAML document\n" +
			"with a title and a list of scenes; pass - to read it from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd.InOrStdin(), args[0], yamlInput)
			if err != nil {
				return err
			}
			if t := strings.TrimSpace(title); t != "" {
				script.Title = t
			}

			return ctx.withClient(func(client *apiclient.Client) error {
				id, err := client.Submit(cmd.Context(), script)
				if err != nil {
					if id != "" {
						return fmt.Errorf("job %s rejected: %w", id, err)
					}
					return err
				}
				if !wait {
					if asJSON {
						return writeJSON(cmd, api.SubmitResponse{JobID: id})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s\n", id)
					return nil
				}
				if !asJSON {
					fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s, waiting for render...\n", id)
				}
				return waitAndReport(cmd, ctx, client, id, asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Override the script title")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job finishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&yamlInput, "yaml", false, "Parse stdin as YAML instead of JSON")
	return cmd
}

func readScript(stdin io.Reader, path string, yamlInput bool) (scene.Script, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return scene.Script{}, fmt.Errorf("read stdin: %w", err)
		}
		return scene.Parse(data, yamlInput)
	}
	if _, err := os.Stat(path); err != nil {
		return scene.Script{}, fmt.Errorf("script file %s: %w", filepath.Clean(path), err)
	}
	return scene.LoadFile(path)
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the render status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *apiclient.Client) error {
				if wait {
					return waitAndReport(cmd, ctx, client, id, asJSON)
				}
				status, err := client.Status(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job finishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func waitAndReport(cmd *cobra.Command, ctx *commandContext, client *apiclient.Client, id string, asJSON bool) error {
	interval := 3 * time.Second
	if cfg := ctx.configValue(); cfg != nil && cfg.Pipeline.PollInterval > 0 {
		interval = time.Duration(cfg.Pipeline.PollInterval) * time.Second
	}
	status, err := client.WaitForCompletion(cmd.Context(), id, interval, nil)
	if err != nil {
		return err
	}
	if asJSON {
		if err := writeJSON(cmd, status); err != nil {
			return err
		}
	} else {
		printStatus(cmd.OutOrStdout(), status)
	}
	if status.Status == api.PollFailed {
		return fmt.Errorf("job %s failed; run `reelforge job %s` for details", id, id)
	}
	return nil
}

func printStatus(out io.Writer, status api.StatusResponse) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderStatusLine("Status", pollStatusKind(status.Status), status.Status, colorize))
	if status.URL != "" {
		fmt.Fprintln(out, renderStatusLine("Video", statusInfo, status.URL, colorize))
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				items, err := client.List(cmd.Context(), limit, normalizeStatusFlags(statuses)...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: items})
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				cols := columns("ID", "Title", "Status", "Scenes#", "Updated", "Result")
				fmt.Fprint(out, renderTable(cols, buildJobRows(items, shouldColorize(out))))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (processing, done, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func normalizeStatusFlags(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func buildJobRows(items []api.Job, colorize bool) [][]string {
	rows := make([][]string, 0, len(items))
	for _, job := range items {
		status := job.Status
		if colorize {
			if color := statusKindColor(jobStatusKind(job.Status)); color != "" {
				status = color + status + ansiReset
			}
		}
		result := job.VideoURL
		if job.ErrorKind != "" {
			result = job.ErrorKind
		}
		rows = append(rows, []string{
			job.ID,
			truncate(job.Title, 40),
			status,
			strconv.Itoa(job.SceneCount),
			job.UpdatedAt,
			result,
		})
	}
	return rows
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "job <job-id>",
		Short: "Show operator details for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				job, err := client.Job(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				printJob(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printJob(out io.Writer, job api.Job) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Job "+job.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Title", statusInfo, job.Title, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(job.Status), job.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Scenes", statusInfo, strconv.Itoa(job.SceneCount), colorize))
	optional := []struct {
		label string
		value string
		kind  statusKind
	}{
		{"Video", job.VideoURL, statusInfo},
		{"Archive", job.ArchiveURL, statusInfo},
		{"Error kind", job.ErrorKind, statusError},
		{"Log", job.LogPath, statusInfo},
		{"Created", job.CreatedAt, statusInfo},
		{"Updated", job.UpdatedAt, statusInfo},
		{"Heartbeat", job.LastHeartbeat, statusInfo},
	}
	for _, field := range optional {
		if field.value == "" {
			continue
		}
		fmt.Fprintln(out, renderStatusLine(field.label, field.kind, field.value, colorize))
	}
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
