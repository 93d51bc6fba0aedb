// Package timeline converts generated scene assets into a RenderSpec: one
// visual and one audio entry per scene, laid back to back in input order at
// start = index * sceneDuration.
//
// Build is pure. It never probes audio, so narration keeps its natural length
// in the RenderSpec; any padding or trimming is a decision of the compositor layer.
package timeline
