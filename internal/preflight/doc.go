// Package preflight reports whether the host and configuration can run jobs.
//
// Plan derives the check list from the config, so a Shotstack credential is
// only demanded when that backend is selected and the LLM is only probed when
// script generation is enabled. The doctor command and deep health run every
// check; the shallow /api/health path uses RunLocal and never leaves the host.
package preflight
