package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/podforge/podforge-core/internal/synth"
)

func TestWAVBufferHeaderLayout(t *testing.T) {
	pcm := make([]byte, 4800)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}
	buf := WAVBuffer(pcm, 24000, 1)

	if got, want := len(buf), HeaderSize+len(pcm); got != want {
		t.Fatalf("buffer length = %d, want %d", got, want)
	}
	if !bytes.Equal(buf[0:4], []byte("RIFF")) {
		t.Errorf("missing RIFF tag: %q", buf[0:4])
	}
	if !bytes.Equal(buf[8:12], []byte("WAVE")) {
		t.Errorf("missing WAVE tag: %q", buf[8:12])
	}
	if !bytes.Equal(buf[12:16], []byte("fmt ")) {
		t.Errorf("missing fmt tag: %q", buf[12:16])
	}
	if !bytes.Equal(buf[36:40], []byte("data")) {
		t.Errorf("missing data tag: %q", buf[36:40])
	}
	if got := binary.LittleEndian.Uint32(buf[4:8]); got != uint32(36+len(pcm)) {
		t.Errorf("chunk size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint32(buf[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
	if got := binary.LittleEndian.Uint32(buf[24:28]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	if got := binary.LittleEndian.Uint16(buf[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if !bytes.Equal(buf[HeaderSize:], pcm) {
		t.Error("pcm payload altered")
	}
}

func TestWAVBufferValidates(t *testing.T) {
	pcm := make([]byte, 9600)
	buf := WAVBuffer(pcm, 24000, 1)
	if err := ValidateWAV(buf, 24000, 1); err != nil {
		t.Fatalf("ValidateWAV: %v", err)
	}
	if err := ValidateWAV(buf, 44100, 1); err == nil {
		t.Error("expected sample rate mismatch to fail validation")
	}
	if err := ValidateWAV(buf, 24000, 2); err == nil {
		t.Error("expected channel mismatch to fail validation")
	}
}

func TestValidateWAVRejectsGarbage(t *testing.T) {
	if err := ValidateWAV([]byte("not a wav"), 24000, 1); err == nil {
		t.Error("expected truncated buffer to fail validation")
	}
	junk := bytes.Repeat([]byte{0xAB}, 128)
	if err := ValidateWAV(junk, 24000, 1); err == nil {
		t.Error("expected junk buffer to fail validation")
	}
}

func TestAssemblePCMSingleHeader(t *testing.T) {
	a := NewAssembler(24000, 1)
	results := []synth.Result{
		{Audio: bytes.Repeat([]byte{1, 2}, 100), Format: synth.FormatPCM},
		{Audio: bytes.Repeat([]byte{3, 4}, 50), Format: synth.FormatPCM},
		{Audio: bytes.Repeat([]byte{5, 6}, 25), Format: synth.FormatPCM},
	}
	out, err := a.Assemble(results)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	wantData := 200 + 100 + 50
	if got := len(out); got != HeaderSize+wantData {
		t.Fatalf("assembled length = %d, want %d", got, HeaderSize+wantData)
	}
	// One header total: the payload must not contain a second RIFF tag.
	if bytes.Contains(out[4:], []byte("RIFF")) {
		t.Error("found extra RIFF header inside payload")
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(wantData) {
		t.Errorf("data size = %d, want %d", got, wantData)
	}
	if err := ValidateWAV(out, 24000, 1); err != nil {
		t.Errorf("assembled artifact failed validation: %v", err)
	}
}

func TestAssembleContainerConcat(t *testing.T) {
	a := NewAssembler(24000, 1)
	results := []synth.Result{
		{Audio: []byte("first"), Format: synth.FormatContainer},
		{Audio: []byte("second"), Format: synth.FormatContainer},
	}
	out, err := a.Assemble(results)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if string(out) != "firstsecond" {
		t.Errorf("assembled = %q, want ordered concat", out)
	}
}

func TestAssembleRejectsEmpty(t *testing.T) {
	a := NewAssembler(24000, 1)
	if _, err := a.Assemble(nil); err == nil {
		t.Error("expected error for no results")
	}
	if _, err := a.Assemble([]synth.Result{{Format: synth.FormatPCM}}); err == nil {
		t.Error("expected error for zero-length batch audio")
	}
}

func TestAssembleRejectsMixedFormats(t *testing.T) {
	a := NewAssembler(24000, 1)
	results := []synth.Result{
		{Audio: []byte{1, 2}, Format: synth.FormatPCM},
		{Audio: []byte{3, 4}, Format: synth.FormatContainer},
	}
	if _, err := a.Assemble(results); err == nil {
		t.Error("expected error for mixed result formats")
	}
}
