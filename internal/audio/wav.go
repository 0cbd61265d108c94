// Package audio reassembles per-batch synthesis output into one
// playable artifact.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/wav"
)

const (
	// HeaderSize is the canonical PCM WAV header length: RIFF
	// descriptor, fmt chunk (16 bytes of fields) and the data chunk
	// preamble.
	HeaderSize = 44

	// BitsPerSample covers every backend here; vendors ship s16le.
	BitsPerSample = 16

	pcmFormatCode = 1
)

// WAVBuffer wraps raw PCM samples in a WAV container. The header is
// written exactly once for the full sample stream — callers must concat
// batches before calling, never per batch, or mid-stream headers crash
// playback.
func WAVBuffer(pcm []byte, sampleRate, channels int) []byte {
	dataSize := len(pcm)
	byteRate := sampleRate * channels * BitsPerSample / 8
	blockAlign := channels * BitsPerSample / 8

	buf := make([]byte, HeaderSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)
	return buf
}

// ValidateWAV decodes the container header and checks it against the
// expected stream parameters. Used as a final sanity gate before an
// artifact is persisted.
func ValidateWAV(buf []byte, sampleRate, channels int) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("wav buffer truncated: %d bytes", len(buf))
	}
	d := wav.NewDecoder(bytes.NewReader(buf))
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return fmt.Errorf("decode wav header: %w", err)
	}
	if !d.IsValidFile() {
		return fmt.Errorf("invalid wav container")
	}
	if int(d.SampleRate) != sampleRate {
		return fmt.Errorf("wav sample rate %d, expected %d", d.SampleRate, sampleRate)
	}
	if int(d.NumChans) != channels {
		return fmt.Errorf("wav channel count %d, expected %d", d.NumChans, channels)
	}
	if d.BitDepth != BitsPerSample {
		return fmt.Errorf("wav bit depth %d, expected %d", d.BitDepth, BitsPerSample)
	}
	return nil
}
