// Package render turns a timeline.RenderSpec into finished video bytes.
//
// Two executors implement Executor: FFmpeg composes locally by downloading
// every referenced asset into a per-job work directory and running one ffmpeg
// invocation built by BuildFFmpegArgs; Shotstack translates the spec with
// BuildShotstackEdit and renders on the hosted service. Translation lives in
// pure builders so timelines can be checked without an encoder.
//
// Every failure leaves this package tagged services.ErrComposition; expiry of
// the render timeout is additionally tagged services.ErrTimeout.
//
// Archiver optionally encodes the finished mp4 to AV1 with Drapto for a
// long-term copy.
package render
