package shotstack

// Edit is the Shotstack render request body.
type Edit struct {
	Timeline Timeline `json:"timeline"`
	Output   Output   `json:"output"`
}

// Timeline holds tracks; the first track is drawn on top.
type Timeline struct {
	Background string  `json:"background,omitempty"`
	Tracks     []Track `json:"tracks"`
}

// Track is an ordered list of clips.
type Track struct {
	Clips []Clip `json:"clips"`
}

// Clip places an asset on the timeline. Start and Length are seconds.
type Clip struct {
	Asset      Asset       `json:"asset"`
	Start      float64     `json:"start"`
	Length     float64     `json:"length"`
	Fit        string      `json:"fit,omitempty"`
	Effect     string      `json:"effect,omitempty"`
	Transition *Transition `json:"transition,omitempty"`
}

// Asset references hosted media.
type Asset struct {
	Type   string  `json:"type"`
	Src    string  `json:"src"`
	Volume float64 `json:"volume,omitempty"`
}

// Transition names the in and out transitions of a clip.
type Transition struct {
	In  string `json:"in,omitempty"`
	Out string `json:"out,omitempty"`
}

// Output describes the rendered file.
type Output struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution,omitempty"`
	FPS        int    `json:"fps,omitempty"`
}
