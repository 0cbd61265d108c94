package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/podforge/podforge-core/internal/voices"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	defaultGeminiModel    = "gemini-2.5-flash-preview-tts"

	// The multi-speaker speech config accepts at most two voices per
	// request.
	geminiMaxSpeakers = 2

	geminiSampleRate = 24000
	geminiChannels   = 1
)

// geminiBackend voices a whole batch in one call: the request enumerates
// the speaker voices in mapping order and the response carries raw
// 16-bit PCM.
type geminiBackend struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func NewGemini(apiKey, endpoint, model string) Backend {
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiBackend{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		client:   http.DefaultClient,
	}
}

func (g *geminiBackend) Capabilities() Capabilities {
	return Capabilities{
		Name:         "gemini",
		MultiSpeaker: true,
		MaxSpeakers:  geminiMaxSpeakers,
		Format:       FormatPCM,
		SampleRate:   geminiSampleRate,
		Channels:     geminiChannels,
	}
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	MultiSpeakerVoiceConfig geminiMultiSpeakerConfig `json:"multiSpeakerVoiceConfig"`
}

type geminiMultiSpeakerConfig struct {
	SpeakerVoiceConfigs []geminiSpeakerVoice `json:"speakerVoiceConfigs"`
}

type geminiSpeakerVoice struct {
	Speaker     string            `json:"speaker"`
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *geminiBackend) SynthesizeBatch(ctx context.Context, req BatchRequest) (Result, error) {
	if len(req.Speakers) > geminiMaxSpeakers {
		return Result{}, &VendorError{
			Backend: "gemini",
			Reason:  ReasonUnknown,
			Err:     fmt.Errorf("request enumerates %d speakers, limit is %d", len(req.Speakers), geminiMaxSpeakers),
		}
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildConversationPrompt(req)}},
		}},
		GenerationConfig: geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: geminiSpeechConfig{
				MultiSpeakerVoiceConfig: geminiMultiSpeakerConfig{
					SpeakerVoiceConfigs: speakerVoiceConfigs(req.Speakers),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, NewVendorError("gemini", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, NewVendorError("gemini", fmt.Errorf("read response: %w", err))
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, NewVendorError("gemini", fmt.Errorf("decode response (status %s): %w", resp.Status, err))
	}
	if resp.StatusCode >= 300 || decoded.Error != nil {
		return Result{}, wrapGeminiError(resp.StatusCode, decoded)
	}

	pcm, err := extractPCM(decoded)
	if err != nil {
		return Result{}, err
	}
	return Result{Audio: pcm, Format: FormatPCM}, nil
}

func (g *geminiBackend) SynthesizeUtterance(ctx context.Context, req UtteranceRequest) (Result, error) {
	return Result{}, &VendorError{
		Backend: "gemini",
		Reason:  ReasonUnknown,
		Err:     errors.New("gemini backend voices whole batches, not single utterances"),
	}
}

// buildConversationPrompt renders the batch as labeled dialogue with
// per-speaker style instructions up front.
func buildConversationPrompt(req BatchRequest) string {
	var b strings.Builder
	b.WriteString("TTS the following conversation")
	var styled []string
	for _, sv := range req.Speakers {
		if sv.Style != "" {
			styled = append(styled, fmt.Sprintf("%s sounds %s", sv.Speaker, sv.Style))
		}
	}
	if len(styled) > 0 {
		b.WriteString(", where ")
		b.WriteString(strings.Join(styled, " and "))
	}
	b.WriteString(":\n")
	for _, u := range req.Utterances {
		b.WriteString(u.Speaker)
		b.WriteString(": ")
		b.WriteString(u.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func speakerVoiceConfigs(speakers []voices.SpeakerVoice) []geminiSpeakerVoice {
	configs := make([]geminiSpeakerVoice, 0, len(speakers))
	for _, sv := range speakers {
		configs = append(configs, geminiSpeakerVoice{
			Speaker: sv.Speaker,
			VoiceConfig: geminiVoiceConfig{
				PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: sv.VoiceID},
			},
		})
	}
	return configs
}

func wrapGeminiError(status int, decoded geminiResponse) *VendorError {
	msg := "request failed"
	if decoded.Error != nil {
		msg = decoded.Error.Message
	}
	err := fmt.Errorf("status %d: %s", status, msg)
	reason := ReasonUnknown
	switch status {
	case 400, 401, 403:
		reason = ReasonAuth
	case 404:
		reason = ReasonModelUnavailable
	case 429:
		reason = ReasonQuota
	}
	if reason == ReasonAuth && !containsAny(strings.ToLower(msg), "key", "auth", "permission", "credential") {
		reason = Classify(err)
	}
	return &VendorError{Backend: "gemini", Reason: reason, Err: err}
}

func extractPCM(decoded geminiResponse) ([]byte, error) {
	for _, cand := range decoded.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, NewVendorError("gemini", fmt.Errorf("decode audio payload: %w", err))
			}
			if len(pcm) > 0 {
				return pcm, nil
			}
		}
	}
	return nil, &VendorError{
		Backend: "gemini",
		Reason:  ReasonEmptyResponse,
		Err:     errors.New("no audio content in response"),
	}
}
