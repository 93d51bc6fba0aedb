// Package drapto wraps the Drapto Go library so the render stage can produce
// an AV1 archival copy of a finished video.
//
// Library implements Client by calling Drapto in-process. The reporter adapter
// turns Drapto's Reporter callbacks into ProgressUpdate values; tests swap in a
// fake Client to avoid running the real encoder.
package drapto
