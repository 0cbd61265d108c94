package synth

import (
	"fmt"

	"github.com/podforge/podforge-core/internal/config"
)

// FromConfig builds the backend selected by engine.mode.
func FromConfig(cfg config.EngineConfig) (Backend, error) {
	switch cfg.Mode {
	case "mock":
		format := FormatContainer
		if cfg.Format == "wav" {
			format = FormatPCM
		}
		return NewMock(format, cfg.SampleRate, cfg.Channels), nil
	case "exec":
		return NewExec(cfg.Command, cfg.SampleRate, cfg.Channels)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.Speed), nil
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.Endpoint, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown engine mode %q", cfg.Mode)
	}
}
