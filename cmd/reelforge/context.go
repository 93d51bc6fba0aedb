package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelforge/internal/apiclient"
	"reelforge/internal/config"
)

// commandContext is shared by every subcommand. Config is loaded at most once
// per process, after flag parsing has filled the pointers.
type commandContext struct {
	apiFlag    *string
	configFlag *string
	loadConfig func() (*config.Config, error)
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	c := &commandContext{apiFlag: apiFlag, configFlag: configFlag}
	c.loadConfig = sync.OnceValues(func() (*config.Config, error) {
		cfg, _, _, err := config.Load(c.configPath())
		return cfg, err
	})
	return c
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (c *commandContext) configPath() string { return flagValue(c.configFlag) }

func (c *commandContext) ensureConfig() (*config.Config, error) { return c.loadConfig() }

// configValue is ensureConfig for callers that tolerate a missing config.
func (c *commandContext) configValue() *config.Config {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil
	}
	return cfg
}

// apiAddress prefers --api over paths.api_bind.
func (c *commandContext) apiAddress() string {
	if addr := flagValue(c.apiFlag); addr != "" {
		return addr
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.APIBind
	}
	return ""
}

func (c *commandContext) client() (*apiclient.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return apiclient.New(c.apiAddress(), apiclient.WithToken(cfg.Paths.APIToken))
}

// withClient runs fn against the daemon and turns dial failures into a hint
// to start it.
func (c *commandContext) withClient(fn func(*apiclient.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	err = fn(client)
	if errors.Is(err, apiclient.ErrDaemonUnreachable) {
		return fmt.Errorf("connect to daemon: %w; start it with `reelforge start`", err)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
