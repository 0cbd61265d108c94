// Package enhance rewrites raw dialogue scripts into a tighter,
// speech-ready form before synthesis. Enhancement is best-effort: any
// failure falls back to the raw script.
package enhance

import "context"

// Generator produces an enhanced script from a raw one.
type Generator interface {
	Enhance(ctx context.Context, script string) (string, error)
}

const systemPrompt = `You rewrite podcast scripts for text-to-speech.
Keep every speaker label exactly as written (Name: line).
Tighten wording for the ear, expand abbreviations, and remove stage
directions. Do not add or remove speakers. Return only the script.`
