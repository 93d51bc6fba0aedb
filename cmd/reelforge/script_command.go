package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"reelforge/internal/apiclient"
	"reelforge/internal/scene"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var asYAML bool
	var submit bool

	cmd := &cobra.Command{
		Use:   "script <concept>",
		Short: "Draft a scene script from a one-line concept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			concept := strings.TrimSpace(strings.Join(args, " "))
			if concept == "" {
				return fmt.Errorf("concept must not be empty")
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				script, err := client.GenerateScript(cmd.Context(), concept)
				if err != nil {
					return err
				}

				useYAML := asYAML
				if outPath != "" {
					ext := strings.ToLower(filepath.Ext(outPath))
					useYAML = ext == ".yaml" || ext == ".yml"
				}
				data, err := encodeScript(script, useYAML)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if outPath != "" {
					if err := os.WriteFile(outPath, data, 0o644); err != nil {
						return fmt.Errorf("write script: %w", err)
					}
					fmt.Fprintf(out, "Wrote %d-scene script to %s\n", len(script.Scenes), outPath)
				} else {
					_, _ = out.Write(data)
				}

				if submit {
					id, err := client.Submit(cmd.Context(), script)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Submitted job %s\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the script to a file (.json, .yaml, or .yml)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit the drafted script for rendering")
	return cmd
}

func encodeScript(script scene.Script, asYAML bool) ([]byte, error) {
	if asYAML {
		data, err := yaml.Marshal(script)
		if err != nil {
			return nil, fmt.Errorf("encode script: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}
	return append(data, '\n'), nil
}
