package scene

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scene is one narrated shot. Its position in the script defines its slot on
// the timeline.
type Scene struct {
	SegmentID         int    `json:"segment_id" yaml:"segment_id" validate:"gte=0"`
	VisualDescription string `json:"visual_description" yaml:"visual_description" validate:"required,max=2000"`
	Voiceover         string `json:"voiceover" yaml:"voiceover" validate:"required,max=5000"`
}

// Script is an ordered scene list with a title.
type Script struct {
	Title       string  `json:"title" yaml:"title" validate:"required,max=200"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" validate:"max=2000"`
	Scenes      []Scene `json:"scenes" yaml:"scenes" validate:"required,min=1,max=60,dive"`
}

// Asset is a scene together with the public URLs of its generated media.
type Asset struct {
	Scene
	ImageURL string `json:"image_url"`
	AudioURL string `json:"audio_url"`
}

// Normalize trims free text and tidies the title in place.
func (s *Script) Normalize() {
	s.Title = NormalizeTitle(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	for i := range s.Scenes {
		s.Scenes[i].VisualDescription = strings.TrimSpace(s.Scenes[i].VisualDescription)
		s.Scenes[i].Voiceover = strings.TrimSpace(s.Scenes[i].Voiceover)
	}
}

// NormalizeTitle collapses whitespace and title-cases titles typed entirely in
// lower case. Mixed-case titles are kept as written.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ""
	}
	if title == strings.ToLower(title) {
		return cases.Title(language.Und).String(title)
	}
	return title
}

// EncodeScenes serializes scenes for storage alongside a job.
func EncodeScenes(scenes []Scene) (string, error) {
	if scenes == nil {
		scenes = []Scene{}
	}
	data, err := json.Marshal(scenes)
	if err != nil {
		return "", fmt.Errorf("encode scenes: %w", err)
	}
	return string(data), nil
}

// DecodeScenes parses scenes previously written by EncodeScenes.
func DecodeScenes(raw string) ([]Scene, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var scenes []Scene
	if err := json.Unmarshal([]byte(raw), &scenes); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	return scenes, nil
}
