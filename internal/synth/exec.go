package synth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// execBackend shells out to a local TTS engine (piper and friends) once
// per utterance. The child reads one JSON request on stdin and streams
// JSON lines with base64 PCM on stdout.
type execBackend struct {
	cmd        []string
	sampleRate int
	channels   int
	mu         sync.Mutex
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	Style      string `json:"style,omitempty"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type execResponse struct {
	PCMBase64 string `json:"pcm_base64"`
	Final     bool   `json:"final"`
}

func NewExec(command string, sampleRate, channels int) (Backend, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command empty")
	}
	return &execBackend{cmd: args, sampleRate: sampleRate, channels: channels}, nil
}

func (e *execBackend) Capabilities() Capabilities {
	return Capabilities{
		Name:       "exec",
		Format:     FormatPCM,
		SampleRate: e.sampleRate,
		Channels:   e.channels,
	}
}

func (e *execBackend) SynthesizeUtterance(ctx context.Context, req UtteranceRequest) (Result, error) {
	// One child process at a time; local engines are rarely reentrant.
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(execRequest{
		Text:       req.Text,
		Voice:      req.VoiceID,
		Style:      req.Style,
		SampleRate: e.sampleRate,
		Channels:   e.channels,
	})
	if err != nil {
		return Result{}, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(payload)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	if err := cmd.Start(); err != nil {
		return Result{}, NewVendorError("exec", fmt.Errorf("start engine: %w", err))
	}

	var pcm []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			cmd.Wait()
			return Result{}, NewVendorError("exec", fmt.Errorf("decode engine output: %w", err))
		}
		chunk, err := base64.StdEncoding.DecodeString(resp.PCMBase64)
		if err != nil {
			cmd.Wait()
			return Result{}, NewVendorError("exec", fmt.Errorf("decode engine audio: %w", err))
		}
		pcm = append(pcm, chunk...)
		if resp.Final {
			break
		}
	}
	if err := cmd.Wait(); err != nil {
		return Result{}, NewVendorError("exec", fmt.Errorf("engine exited: %w", err))
	}
	if err := scanner.Err(); err != nil {
		return Result{}, NewVendorError("exec", err)
	}
	if len(pcm) == 0 {
		return Result{}, &VendorError{
			Backend: "exec",
			Reason:  ReasonEmptyResponse,
			Err:     errors.New("engine produced no audio"),
		}
	}
	return Result{Audio: pcm, Format: FormatPCM}, nil
}

func (e *execBackend) SynthesizeBatch(ctx context.Context, req BatchRequest) (Result, error) {
	return Result{}, &VendorError{
		Backend: "exec",
		Reason:  ReasonUnknown,
		Err:     errors.New("exec backend voices one utterance per call"),
	}
}
