package synth

import (
	"bytes"
	"context"
	"testing"
)

func TestMockDeterministic(t *testing.T) {
	b := NewMock(FormatContainer, 24000, 1)
	req := UtteranceRequest{Text: "hello", VoiceID: "nova", OutputFormat: "mp3"}
	first, err := b.SynthesizeUtterance(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := b.SynthesizeUtterance(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(first.Audio, second.Audio) {
		t.Fatal("mock output not deterministic")
	}
	if first.Format != FormatContainer {
		t.Fatalf("unexpected format %s", first.Format)
	}
}

func TestMockPCMAlignment(t *testing.T) {
	b := NewMock(FormatPCM, 22050, 1)
	res, err := b.SynthesizeUtterance(context.Background(), UtteranceRequest{Text: "odd", VoiceID: "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Audio)%2 != 0 {
		t.Fatalf("pcm payload not 16-bit aligned: %d bytes", len(res.Audio))
	}
}

func TestMockRespectsCancel(t *testing.T) {
	b := NewMock(FormatContainer, 24000, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.SynthesizeUtterance(ctx, UtteranceRequest{Text: "x"}); err == nil {
		t.Fatal("expected context error")
	}
}
