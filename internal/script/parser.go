package script

import (
	"regexp"
	"strings"
	"unicode"
)

// Utterance is one speaker's contiguous run of dialogue. Order of the
// parsed sequence is the temporal order of the episode and is preserved
// by every stage downstream.
type Utterance struct {
	Speaker string
	Text    string
}

// NarratorSpeaker is assigned to text that carries no speaker marker.
const NarratorSpeaker = "Narrator"

const maxSpeakerWords = 3

var (
	// Speaker: text, optionally with markdown emphasis around the name.
	colonMarker = regexp.MustCompile(`^\s*(?:\*\*)?([^:\[\]()]+?)(?:\*\*)?\s*:\s*(.*)$`)
	// [Speaker] text. Requires trailing text so a bare [stage direction]
	// line is not mistaken for a speaker change.
	bracketMarker = regexp.MustCompile(`^\s*\[([^\]]+)\]\s*(\S.*)$`)
)

// Parse splits raw script text into an ordered sequence of utterances.
// It is a pure function: no I/O, deterministic for a given input, and it
// never fails — unparseable input degrades to a single narrator
// utterance rather than an error.
func Parse(text string) []Utterance {
	var (
		utterances     []Utterance
		currentSpeaker string
		currentText    string
		haveSpeaker    bool
	)

	flush := func() {
		if haveSpeaker {
			utterances = append(utterances, Utterance{
				Speaker: strings.TrimSpace(currentSpeaker),
				Text:    strings.TrimSpace(currentText),
			})
		}
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if speaker, rest, ok := matchMarker(line); ok {
			flush()
			currentSpeaker = speaker
			currentText = rest
			haveSpeaker = true
			continue
		}

		if haveSpeaker {
			if isStageDirection(line) {
				currentText += " " + line
			} else if currentText == "" {
				currentText = line
			} else {
				currentText += " " + line
			}
			continue
		}

		// No marker and no active speaker: implicit narrator.
		currentSpeaker = NarratorSpeaker
		currentText = line
		haveSpeaker = true
	}

	flush()

	if len(utterances) == 0 && strings.TrimSpace(text) != "" {
		utterances = append(utterances, Utterance{
			Speaker: NarratorSpeaker,
			Text:    strings.TrimSpace(text),
		})
	}

	return utterances
}

// matchMarker reports whether the line opens a new utterance, returning
// the speaker name and the text after the marker.
func matchMarker(line string) (speaker, rest string, ok bool) {
	if m := colonMarker.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(m[1])
		after := strings.TrimSpace(m[2])
		if plausibleSpeaker(name) && after != "" {
			return name, after, true
		}
	}
	if m := bracketMarker.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(m[1])
		if plausibleSpeaker(name) && !isStageDirection("["+m[1]+"]") {
			return name, strings.TrimSpace(m[2]), true
		}
	}
	return "", "", false
}

// plausibleSpeaker filters out timestamps and prices masquerading as
// speaker names ("3:30pm: results are in", "$5: a bargain").
func plausibleSpeaker(name string) bool {
	if name == "" {
		return false
	}
	if len(strings.Fields(name)) > maxSpeakerWords {
		return false
	}
	first := []rune(name)[0]
	if unicode.IsDigit(first) || strings.ContainsRune("$€£¥", first) {
		return false
	}
	return true
}

// isStageDirection reports whether the whole line is a parenthesized or
// bracketed direction like "(laughs)" or "[applause]".
func isStageDirection(line string) bool {
	if strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")") {
		return true
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return looksLikeDirection(strings.Trim(line, "[]"))
	}
	return false
}

// looksLikeDirection distinguishes "[upbeat music fades]" from a
// "[Speaker]"-style name: directions are lowercase or verbose.
func looksLikeDirection(inner string) bool {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return true
	}
	if len(strings.Fields(inner)) > maxSpeakerWords {
		return true
	}
	first := []rune(inner)[0]
	return !unicode.IsUpper(first)
}
