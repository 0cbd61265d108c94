package audio

import (
	"fmt"

	"github.com/podforge/podforge-core/internal/synth"
)

// Assembler joins per-batch synthesis results into one artifact in
// batch order.
type Assembler struct {
	sampleRate int
	channels   int
}

// NewAssembler returns an assembler for the given PCM stream
// parameters. The parameters are only consulted for raw-PCM results;
// container formats carry their own framing.
func NewAssembler(sampleRate, channels int) *Assembler {
	return &Assembler{sampleRate: sampleRate, channels: channels}
}

// Assemble concatenates batch results into a single audio buffer.
// Container results are joined byte-for-byte. Raw PCM results are
// joined sample-for-sample and wrapped in exactly one WAV header.
// Results must share one format; an empty or zero-length input is an
// assembly error, never a silent empty artifact.
func (a *Assembler) Assemble(results []synth.Result) ([]byte, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("assemble: no batch results")
	}
	format := results[0].Format
	total := 0
	for i, r := range results {
		if r.Format != format {
			return nil, fmt.Errorf("assemble: batch %d format %v, batch 0 format %v", i, r.Format, format)
		}
		if len(r.Audio) == 0 {
			return nil, fmt.Errorf("assemble: batch %d produced no audio", i)
		}
		total += len(r.Audio)
	}

	joined := make([]byte, 0, total)
	for _, r := range results {
		joined = append(joined, r.Audio...)
	}

	if format == synth.FormatPCM {
		return WAVBuffer(joined, a.sampleRate, a.channels), nil
	}
	return joined, nil
}
