package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrConfigExists is returned by WriteSample when the target already exists
// and overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// WriteSample writes the annotated sample config to path, creating parent
// directories. An existing file is only replaced when overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}

const redactedValue = "<redacted>"

// Redacted returns a copy with every credential replaced by a marker. Unset
// credentials stay empty so the output still shows what is missing.
func (c *Config) Redacted() Config {
	out := *c
	for _, secret := range []*string{
		&out.Paths.APIToken,
		&out.Shotstack.APIKey,
		&out.Image.APIKey,
		&out.Voice.APIKey,
		&out.LLM.APIKey,
	} {
		if strings.TrimSpace(*secret) != "" {
			*secret = redactedValue
		}
	}
	return out
}

// EncodeTOML renders the effective configuration, credentials redacted, in
// the same layout the config file uses.
func (c *Config) EncodeTOML() ([]byte, error) {
	redacted := c.Redacted()
	data, err := toml.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
