// Package shotstack is a small client for the Shotstack Edit API: submit an
// edit, poll its render status, download the result. The Edit types mirror
// the subset of the JSON schema reelforge uses (image and audio clips).
package shotstack
