package batch

import (
	"strings"
	"testing"
	"time"

	"github.com/podforge/podforge-core/internal/script"
)

func TestEstimate(t *testing.T) {
	if d := Estimate("", 150); d != 0 {
		t.Fatalf("empty text should estimate to 0, got %v", d)
	}
	// 150 words at 150 wpm is one minute.
	text := strings.TrimSpace(strings.Repeat("word ", 150))
	if d := Estimate(text, 150); d != time.Minute {
		t.Fatalf("expected 1m, got %v", d)
	}
	// 75 words is half of that.
	text = strings.TrimSpace(strings.Repeat("word ", 75))
	if d := Estimate(text, 150); d != 30*time.Second {
		t.Fatalf("expected 30s, got %v", d)
	}
}

func TestEstimateBadRateFallsBack(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 150))
	if d := Estimate(text, 0); d != time.Minute {
		t.Fatalf("expected default rate, got %v", d)
	}
}

func utterances(texts ...string) []script.Utterance {
	out := make([]script.Utterance, 0, len(texts))
	for _, s := range texts {
		out = append(out, script.Utterance{Speaker: "Host", Text: s})
	}
	return out
}

func fixedEstimate(d time.Duration) EstimateFunc {
	return func(script.Utterance) time.Duration { return d }
}

func TestSplitConservation(t *testing.T) {
	items := utterances("a", "b", "c", "d", "e")
	batches := Split(items, 25*time.Second, fixedEstimate(10*time.Second))

	total := 0
	var flattened []script.Utterance
	for i, b := range batches {
		if len(b) == 0 {
			t.Fatalf("batch %d is empty", i)
		}
		total += len(b)
		flattened = append(flattened, b...)
	}
	if total != len(items) {
		t.Fatalf("item count not conserved: %d != %d", total, len(items))
	}
	for i := range items {
		if flattened[i] != items[i] {
			t.Fatalf("order broken at %d: %v != %v", i, flattened[i], items[i])
		}
	}
	// 10s items against a 25s ceiling pack two per batch.
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
}

func TestSplitOversizedItemGetsOwnBatch(t *testing.T) {
	items := utterances("short", "very long monologue", "short again")
	est := func(u script.Utterance) time.Duration {
		if u.Text == "very long monologue" {
			return 5 * time.Minute
		}
		return time.Second
	}
	batches := Split(items, 10*time.Second, est)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[1]) != 1 || batches[1][0].Text != "very long monologue" {
		t.Fatalf("oversized item not isolated: %#v", batches[1])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split(nil, time.Minute, fixedEstimate(time.Second)); got != nil {
		t.Fatalf("expected nil for empty input, got %#v", got)
	}
}

func TestSplitSingleBatch(t *testing.T) {
	items := utterances("a", "b")
	batches := Split(items, time.Hour, fixedEstimate(time.Second))
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected one batch of 2, got %#v", batches)
	}
}
