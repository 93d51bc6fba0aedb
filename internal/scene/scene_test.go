package scene_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/scene"
	"reelforge/internal/services"
)

func validScript() scene.Script {
	return scene.Script{
		Title: "  the   deep sea ",
		Scenes: []scene.Scene{
			{SegmentID: 1, VisualDescription: " an anglerfish ", Voiceover: "Down here, light is a lure."},
			{SegmentID: 2, VisualDescription: "a whale fall", Voiceover: "Nothing goes to waste."},
		},
	}
}

func TestValidateNormalizesScript(t *testing.T) {
	s := validScript()
	if err := scene.Validate(&s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.Title != "The Deep Sea" {
		t.Fatalf("unexpected title: %q", s.Title)
	}
	if s.Scenes[0].VisualDescription != "an anglerfish" {
		t.Fatalf("expected trimmed description, got %q", s.Scenes[0].VisualDescription)
	}
}

func TestValidateRejectsMalformedScripts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*scene.Script)
		want   string
	}{
		{"missing title", func(s *scene.Script) { s.Title = "   " }, "Title is required"},
		{"no scenes", func(s *scene.Script) { s.Scenes = nil }, "Scenes is required"},
		{"empty scenes", func(s *scene.Script) { s.Scenes = []scene.Scene{} }, "Scenes"},
		{"blank voiceover", func(s *scene.Script) { s.Scenes[1].Voiceover = "  " }, "Scenes[1].Voiceover is required"},
		{"blank visual", func(s *scene.Script) { s.Scenes[0].VisualDescription = "" }, "Scenes[0].VisualDescription is required"},
		{"negative segment", func(s *scene.Script) { s.Scenes[0].SegmentID = -1 }, "SegmentID"},
		{"repeated segment", func(s *scene.Script) { s.Scenes[1].SegmentID = 1 }, "Scenes[1].SegmentID 1 repeats Scenes[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScript()
			tt.mutate(&s)
			err := scene.Validate(&s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidateAllowsOmittedSegmentIDs(t *testing.T) {
	s := validScript()
	for i := range s.Scenes {
		s.Scenes[i].SegmentID = 0
	}
	if err := scene.Validate(&s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNormalizeTitleKeepsMixedCase(t *testing.T) {
	if got := scene.NormalizeTitle("NASA and the  Moon"); got != "NASA and the Moon" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestEncodeDecodeScenes(t *testing.T) {
	s := validScript()
	raw, err := scene.EncodeScenes(s.Scenes)
	if err != nil {
		t.Fatalf("EncodeScenes: %v", err)
	}
	if !strings.Contains(raw, `"visual_description"`) {
		t.Fatalf("expected snake_case keys, got %s", raw)
	}
	decoded, err := scene.DecodeScenes(raw)
	if err != nil {
		t.Fatalf("DecodeScenes: %v", err)
	}
	if len(decoded) != 2 || decoded[1].Voiceover != s.Scenes[1].Voiceover {
		t.Fatalf("unexpected decoded scenes: %+v", decoded)
	}
	if empty, _ := scene.EncodeScenes(nil); empty != "[]" {
		t.Fatalf("expected empty list, got %q", empty)
	}
}

func TestLoadFileYAMLAndBareList(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "script.yaml")
	yamlDoc := "title: Tides\nscenes:\n  - segment_id: 1\n    visual_description: waves\n    voiceover: The moon pulls.\n"
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	s, err := scene.LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFile yaml: %v", err)
	}
	if s.Title != "Tides" || len(s.Scenes) != 1 || s.Scenes[0].VisualDescription != "waves" {
		t.Fatalf("unexpected yaml script: %+v", s)
	}

	jsonPath := filepath.Join(dir, "scenes.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"segment_id":1,"visual_description":"v","voiceover":"o"}]`), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	s, err = scene.LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFile json: %v", err)
	}
	if len(s.Scenes) != 1 || s.Title != "" {
		t.Fatalf("unexpected json script: %+v", s)
	}
}
