package render

import (
	"testing"
	"time"

	"reelforge/internal/testsupport"
	"reelforge/internal/timeline"
)

func testSpec(refs ...[2]string) timeline.RenderSpec {
	const d = 4 * time.Second
	spec := timeline.RenderSpec{
		Width:         640,
		Height:        360,
		SceneDuration: d,
		FadeDuration:  500 * time.Millisecond,
		Zoom:          1.1,
	}
	for i, ref := range refs {
		spec.Entries = append(spec.Entries, timeline.Entry{
			Index:     i,
			SegmentID: i + 1,
			VisualRef: ref[0],
			AudioRef:  ref[1],
			Start:     time.Duration(i) * d,
			Duration:  d,
			Effects:   []timeline.Effect{timeline.EffectFadeIn, timeline.EffectFadeOut, timeline.EffectZoomIn},
		})
	}
	return spec
}

func localMedia(t *testing.T, n int) [][2]string {
	t.Helper()
	pairs := testsupport.WriteMediaPairs(t, t.TempDir(), n)
	refs := make([][2]string, len(pairs))
	for i, pair := range pairs {
		refs[i] = [2]string{pair.Image, pair.Audio}
	}
	return refs
}
