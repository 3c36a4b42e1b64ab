// Package media extracts the audio track of a video with ffmpeg.
//
// The output is 16 kHz mono 16-bit PCM WAV, the format the speech backends
// accept. Callers own the produced file and release it with Cleanup.
package media
