// Package synth abstracts the text-to-speech vendors behind one
// backend contract. Backends either voice one utterance per call or a
// whole multi-speaker batch per call; callers pick the path from the
// reported capabilities.
package synth

import (
	"context"

	"github.com/podforge/podforge-core/internal/script"
	"github.com/podforge/podforge-core/internal/voices"
)

// Format tags the payload a backend returns.
type Format string

const (
	// FormatContainer is ready-to-play compressed audio whose frames
	// concatenate cleanly (mp3, opus, aac, flac).
	FormatContainer Format = "container"
	// FormatPCM is raw little-endian 16-bit samples needing a WAV
	// container before playback.
	FormatPCM Format = "pcm"
)

// Capabilities describes what a backend can do.
type Capabilities struct {
	Name         string
	MultiSpeaker bool // one call voices a whole batch
	MaxSpeakers  int  // 0 = no backend-imposed cap
	Format       Format
	SampleRate   int
	Channels     int
}

// UtteranceRequest is one single-speaker synthesis call.
type UtteranceRequest struct {
	Text         string
	VoiceID      string
	Style        string
	OutputFormat string // mp3|wav|opus|aac|flac, container backends only
}

// BatchRequest is one multi-speaker synthesis call. Speakers must be
// enumerated in the exact mapping order; the mapping is frozen for the
// job and shared by every batch.
type BatchRequest struct {
	Utterances []script.Utterance
	Speakers   []voices.SpeakerVoice
}

// Result is the audio for one call, tagged for reassembly.
type Result struct {
	Audio  []byte
	Format Format
}

// Backend is the contract over a concrete TTS vendor. Implementations
// with MultiSpeaker capability serve SynthesizeBatch; the rest serve
// SynthesizeUtterance. Each invocation is one outbound vendor call.
type Backend interface {
	Capabilities() Capabilities
	SynthesizeUtterance(ctx context.Context, req UtteranceRequest) (Result, error)
	SynthesizeBatch(ctx context.Context, req BatchRequest) (Result, error)
}
