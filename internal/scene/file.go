package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a script from a JSON or YAML file. The format follows the
// file extension; anything other than .yaml or .yml is parsed as JSON. A
// file holding a bare scene list is accepted too.
func LoadFile(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return Parse(data, ext == ".yaml" || ext == ".yml")
}

// Parse decodes script bytes as YAML or JSON.
func Parse(data []byte, isYAML bool) (Script, error) {
	var script Script
	unmarshal := json.Unmarshal
	if isYAML {
		unmarshal = yaml.Unmarshal
	}
	if err := unmarshal(data, &script); err == nil {
		return script, nil
	}
	var scenes []Scene
	if err := unmarshal(data, &scenes); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	return Script{Scenes: scenes}, nil
}
