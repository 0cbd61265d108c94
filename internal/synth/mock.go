package synth

import (
	"context"
	"fmt"
	"time"
)

// mockBackend fabricates deterministic audio bytes without any network
// call. It stands in for a vendor during development and tests.
type mockBackend struct {
	format     Format
	sampleRate int
	channels   int
	delay      time.Duration
}

// NewMock returns a backend producing synthetic audio in the given
// format. Output depends only on the request, so assembled artifacts
// are reproducible.
func NewMock(format Format, sampleRate, channels int) Backend {
	return &mockBackend{
		format:     format,
		sampleRate: sampleRate,
		channels:   channels,
		delay:      10 * time.Millisecond,
	}
}

func (m *mockBackend) Capabilities() Capabilities {
	return Capabilities{
		Name:       "mock",
		Format:     m.format,
		SampleRate: m.sampleRate,
		Channels:   m.channels,
	}
}

func (m *mockBackend) SynthesizeUtterance(ctx context.Context, req UtteranceRequest) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(m.delay):
	}
	payload := []byte(fmt.Sprintf("%s|%s|%s\n", req.VoiceID, req.Style, req.Text))
	if m.format == FormatPCM && len(payload)%2 != 0 {
		payload = append(payload, 0) // 16-bit sample alignment
	}
	return Result{Audio: payload, Format: m.format}, nil
}

func (m *mockBackend) SynthesizeBatch(ctx context.Context, req BatchRequest) (Result, error) {
	return Result{}, &VendorError{
		Backend: "mock",
		Reason:  ReasonUnknown,
		Err:     fmt.Errorf("mock backend has no multi-speaker mode"),
	}
}
