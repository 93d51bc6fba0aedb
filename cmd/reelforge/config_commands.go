package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
)

// Config subcommands load the file themselves so a broken config can still be
// inspected, replaced or reported.
var skipConfigLoad = map[string]string{"skipConfigLoad": "true"}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print the configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write an annotated sample configuration file",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}
			if err := config.WriteSample(target, overwrite); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w (pass --overwrite to replace it)", err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: set image.api_key and voice.api_key, or export HUGGINGFACE_API_KEY and ELEVENLABS_API_KEY, then run `reelforge start`.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func resolveInitTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var requireProviders bool
	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Parse and validate the configuration",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if requireProviders {
				if err := cfg.ValidateProviders(); err != nil {
					return err
				}
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			printConfigSummary(cmd.OutOrStdout(), cfg, path, exists)
			return nil
		},
	}
	cmd.Flags().BoolVar(&requireProviders, "providers", false, "Also require the provider keys the daemon needs")
	return cmd
}

func printConfigSummary(out io.Writer, cfg *config.Config, path string, exists bool) {
	source := path
	if !exists {
		source = path + " (missing, defaults used)"
	}
	rows := [][2]string{
		{"Config path", source},
		{"Render backend", cfg.Render.Backend},
		{"Storage backend", cfg.Storage.Backend},
		{"Scene duration", cfg.SceneDuration().String()},
		{"Max concurrent jobs", fmt.Sprint(cfg.Pipeline.MaxConcurrentJobs)},
		{"Script generation", yesNo(cfg.GetLLM().APIKey != "")},
		{"Notifications", yesNo(cfg.Notifications.NtfyTopic != "")},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%s: %s\n", row[0], row[1])
	}
	fmt.Fprintln(out, "Configuration valid")
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration with credentials redacted",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := cfg.EncodeTOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
