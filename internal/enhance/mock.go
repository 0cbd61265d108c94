package enhance

import (
	"context"
	"strings"

	"github.com/podforge/podforge-core/internal/config"
)

type mockGenerator struct{}

// NewMock returns a Generator that normalizes whitespace without
// calling out to a model. Useful for development and tests.
func NewMock() Generator {
	return mockGenerator{}
}

func (mockGenerator) Enhance(_ context.Context, script string) (string, error) {
	lines := strings.Split(script, "\n")
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n")), nil
}

// FromConfig builds the configured Generator, or nil when enhancement
// is disabled.
func FromConfig(cfg config.EnhanceConfig) Generator {
	if !cfg.Enabled {
		return nil
	}
	switch cfg.Mode {
	case "ollama":
		return NewOllama(cfg)
	default:
		return NewMock()
	}
}
