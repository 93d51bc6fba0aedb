package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/timeline"
)

const (
	defaultFrameRate    = 25
	defaultAudioBitrate = "192k"
	defaultSampleRate   = 44100
)

// Input is the local location of one scene's media.
type Input struct {
	Image string
	Audio string
}

// EncodeSettings controls the output encoder.
type EncodeSettings struct {
	Preset    string
	Threads   int
	FrameRate int
	// Progress adds "-progress pipe:1" so the executor can report encode progress.
	Progress bool
}

// BuildFFmpegArgs translates spec into one ffmpeg invocation writing output.
// inputs must be in spec order, one per entry.
//
// Each still is looped for exactly one slot, letterboxed into the output frame
// and given the spec's zoom and fades. Each narration is padded with silence
// and trimmed to its slot so a long voiceover cannot shift later scenes; the
// final mux still uses -shortest.
func BuildFFmpegArgs(spec timeline.RenderSpec, inputs []Input, output string, enc EncodeSettings) ([]string, error) {
	if len(spec.Entries) == 0 {
		return nil, errors.New("render spec has no entries")
	}
	if len(inputs) != len(spec.Entries) {
		return nil, fmt.Errorf("have %d inputs for %d entries", len(inputs), len(spec.Entries))
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", spec.Width, spec.Height)
	}
	if strings.TrimSpace(output) == "" {
		return nil, errors.New("output path required")
	}
	fps := enc.FrameRate
	if fps <= 0 {
		fps = defaultFrameRate
	}
	preset := strings.TrimSpace(enc.Preset)
	if preset == "" {
		preset = "ultrafast"
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}
	if enc.Progress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	for i, entry := range spec.Entries {
		if inputs[i].Image == "" || inputs[i].Audio == "" {
			return nil, fmt.Errorf("entry %d is missing local media", i)
		}
		args = append(args,
			"-loop", "1",
			"-framerate", strconv.Itoa(fps),
			"-t", seconds(entry.Duration),
			"-i", inputs[i].Image,
			"-i", inputs[i].Audio,
		)
	}

	var graph []string
	var concatInputs strings.Builder
	for i, entry := range spec.Entries {
		graph = append(graph,
			fmt.Sprintf("[%d:v]%s[v%d]", 2*i, videoChain(spec, entry, fps), i),
			fmt.Sprintf("[%d:a]%s[a%d]", 2*i+1, audioChain(entry), i),
		)
		fmt.Fprintf(&concatInputs, "[v%d][a%d]", i, i)
	}
	graph = append(graph, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", concatInputs.String(), len(spec.Entries)))

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", "libx264",
		"-preset", preset,
		"-threads", strconv.Itoa(max(enc.Threads, 0)),
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(fps),
		"-c:a", "aac",
		"-b:a", defaultAudioBitrate,
		"-shortest",
		"-movflags", "+faststart",
		output,
	)
	return args, nil
}

func videoChain(spec timeline.RenderSpec, entry timeline.Entry, fps int) string {
	w, h := spec.Width, spec.Height
	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
		"setsar=1",
	}
	if entry.HasEffect(timeline.EffectZoomIn) && spec.Zoom > 1 {
		frames := entry.Duration.Seconds() * float64(fps)
		step := (spec.Zoom - 1) / frames
		filters = append(filters, fmt.Sprintf(
			"zoompan=z='min(1+%s*on,%s)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=1:s=%dx%d:fps=%d",
			strconv.FormatFloat(step, 'f', 6, 64),
			strconv.FormatFloat(spec.Zoom, 'f', -1, 64),
			w, h, fps,
		))
	}
	if spec.FadeDuration > 0 {
		if entry.HasEffect(timeline.EffectFadeIn) {
			filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%s", seconds(spec.FadeDuration)))
		}
		if entry.HasEffect(timeline.EffectFadeOut) {
			filters = append(filters, fmt.Sprintf("fade=t=out:st=%s:d=%s",
				seconds(entry.Duration-spec.FadeDuration), seconds(spec.FadeDuration)))
		}
	}
	filters = append(filters, "format=yuv420p", "setpts=PTS-STARTPTS")
	return strings.Join(filters, ",")
}

func audioChain(entry timeline.Entry) string {
	return strings.Join([]string{
		fmt.Sprintf("aresample=%d", defaultSampleRate),
		"aformat=sample_fmts=fltp:channel_layouts=stereo",
		"apad",
		"atrim=0:" + seconds(entry.Duration),
		"asetpts=PTS-STARTPTS",
	}, ",")
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
