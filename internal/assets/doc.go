// Package assets turns one scene into its uploaded media.
//
// Fetcher.Fetch generates the scene image and narration concurrently, waits
// for both, then uploads both concurrently. An upload never starts unless both
// generations succeeded. Every call runs under its own timeout; expiry is
// reported as the failure of that call (asset generation or upload) and is
// additionally tagged with services.ErrTimeout.
package assets
