// Package batch groups ordered utterances into duration-bounded groups
// for submission to a synthesis backend.
package batch

import (
	"strings"
	"time"

	"github.com/podforge/podforge-core/internal/script"
)

// DefaultWordsPerMinute is the speaking-rate assumption behind duration
// estimates.
const DefaultWordsPerMinute = 150

// Estimate returns the approximate spoken duration of text at the given
// rate. Empty text estimates to zero; the estimate never fails.
func Estimate(text string, wordsPerMinute int) time.Duration {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	seconds := float64(words) / float64(wordsPerMinute) * 60
	return time.Duration(seconds * float64(time.Second))
}

// EstimateFunc maps an utterance to its estimated spoken duration.
type EstimateFunc func(script.Utterance) time.Duration

// Split packs utterances greedily into ordered batches whose cumulative
// estimated duration stays within maxDuration. A single utterance whose
// estimate alone exceeds the ceiling still gets its own batch; nothing
// is dropped or split, and flattening the result reproduces the input
// exactly.
func Split(items []script.Utterance, maxDuration time.Duration, estimate EstimateFunc) [][]script.Utterance {
	if len(items) == 0 {
		return nil
	}

	var (
		batches [][]script.Utterance
		current []script.Utterance
		elapsed time.Duration
	)
	for _, item := range items {
		d := estimate(item)
		if len(current) > 0 && elapsed+d > maxDuration {
			batches = append(batches, current)
			current = nil
			elapsed = 0
		}
		current = append(current, item)
		elapsed += d
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
