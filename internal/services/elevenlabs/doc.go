// Package elevenlabs synthesizes scene narration with the ElevenLabs
// text-to-speech API. Output is mp3 (Accept: audio/mpeg).
package elevenlabs
