package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfigPath names the environment variable that points at a config file
// when --config is not given.
const EnvConfigPath = "REELFORGE_CONFIG"

const defaultConfigLocation = "~/.config/reelforge/config.toml"

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load resolves, decodes, normalizes and validates the configuration. It
// returns the config, the file it came from (or would come from), and whether
// that file exists. A missing file yields defaults plus environment overrides.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := loadEnvFile(cfg.Paths.EnvFile); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err = dec.Decode(cfg)

	var strict *toml.StrictMissingError
	var syntax *toml.DecodeError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &strict):
		keys := make([]string, 0, len(strict.Errors))
		for _, e := range strict.Errors {
			keys = append(keys, strings.Join(e.Key(), "."))
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	case errors.As(err, &syntax):
		row, col := syntax.Position()
		return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
	default:
		return fmt.Errorf("parse config %s: %w", path, err)
	}
}

// resolveConfigPath picks the config file: an explicit path wins even when
// missing, then $REELFORGE_CONFIG, then the per-user file, then reelforge.toml
// in the working directory. With nothing on disk the per-user path is
// reported as absent.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit = strings.TrimSpace(explicit); explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		if err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, exists, nil
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// loadEnvFile fills unset environment variables from a dotenv file; values
// already in the environment win. An explicit paths.env_file must exist,
// while the implicit ./.env is optional.
func loadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	expanded, err := expandPath(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	found, err := isFile(expanded)
	switch {
	case err != nil:
		return fmt.Errorf("env file %s: %w", expanded, err)
	case !found && explicit:
		return fmt.Errorf("env file %s: %w", expanded, fs.ErrNotExist)
	case !found:
		return nil
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}
