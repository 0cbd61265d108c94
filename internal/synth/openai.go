package synth

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// openaiBackend voices one utterance per call and returns container
// audio in the requested format.
type openaiBackend struct {
	client *openai.Client
	model  string
	speed  float64
}

// NewOpenAI builds the OpenAI speech backend. The speech endpoint does
// not accept style instructions, so UtteranceRequest.Style is carried
// but not transmitted.
func NewOpenAI(apiKey, model string, speed float64) Backend {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &openaiBackend{
		client: openai.NewClient(apiKey),
		model:  model,
		speed:  speed,
	}
}

func (o *openaiBackend) Capabilities() Capabilities {
	return Capabilities{
		Name:   "openai",
		Format: FormatContainer,
	}
}

func (o *openaiBackend) SynthesizeUtterance(ctx context.Context, req UtteranceRequest) (Result, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(req.VoiceID),
		ResponseFormat: openai.SpeechResponseFormat(req.OutputFormat),
		Speed:          o.speed,
	})
	if err != nil {
		return Result{}, wrapOpenAIError(err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return Result{}, &VendorError{Backend: "openai", Reason: ReasonUnknown, Err: fmt.Errorf("read speech response: %w", err)}
	}
	// A 200 with no payload is a failure, not a zero-length success.
	if len(audio) == 0 {
		return Result{}, &VendorError{Backend: "openai", Reason: ReasonEmptyResponse, Err: errors.New("no audio content in response")}
	}
	return Result{Audio: audio, Format: FormatContainer}, nil
}

func (o *openaiBackend) SynthesizeBatch(ctx context.Context, req BatchRequest) (Result, error) {
	return Result{}, &VendorError{
		Backend: "openai",
		Reason:  ReasonUnknown,
		Err:     errors.New("openai backend voices one utterance per call"),
	}
}

func wrapOpenAIError(err error) *VendorError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		reason := ReasonUnknown
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			reason = ReasonAuth
		case 404:
			reason = ReasonModelUnavailable
		case 429:
			reason = ReasonQuota
		}
		if reason == ReasonUnknown {
			reason = Classify(err)
		}
		return &VendorError{Backend: "openai", Reason: reason, Err: err}
	}
	return NewVendorError("openai", err)
}
