package script

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseColonMarkers(t *testing.T) {
	got := Parse("Host: Welcome!\nGuest: Thanks.")
	want := []Utterance{
		{Speaker: "Host", Text: "Welcome!"},
		{Speaker: "Guest", Text: "Thanks."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected utterances: %#v", got)
	}
}

func TestParseEmphasisAndBrackets(t *testing.T) {
	got := Parse("**Host**: Hello there\n[Guest] Glad to be here")
	want := []Utterance{
		{Speaker: "Host", Text: "Hello there"},
		{Speaker: "Guest", Text: "Glad to be here"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected utterances: %#v", got)
	}
}

func TestParseTimestampIsNotASpeaker(t *testing.T) {
	got := Parse("Host: Hello\n3:30pm: results are in")
	want := []Utterance{
		{Speaker: "Host", Text: "Hello 3:30pm: results are in"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("timestamp treated as speaker: %#v", got)
	}
}

func TestParseCurrencyIsNotASpeaker(t *testing.T) {
	got := Parse("Host: It cost a lot\n$5: still a bargain")
	if len(got) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(got))
	}
	if got[0].Text != "It cost a lot $5: still a bargain" {
		t.Fatalf("unexpected text: %q", got[0].Text)
	}
}

func TestParseLongNameIsNotASpeaker(t *testing.T) {
	got := Parse("Host: Intro\nThe point of all this: is continuation")
	if len(got) != 1 {
		t.Fatalf("expected 1 utterance, got %d: %#v", len(got), got)
	}
}

func TestParseContinuationAndStageDirections(t *testing.T) {
	in := strings.Join([]string{
		"Host: Welcome to the show.",
		"Today we talk about audio.",
		"(laughs)",
		"",
		"Guest: Happy to join.",
		"[applause]",
	}, "\n")
	got := Parse(in)
	want := []Utterance{
		{Speaker: "Host", Text: "Welcome to the show. Today we talk about audio. (laughs)"},
		{Speaker: "Guest", Text: "Happy to join. [applause]"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected utterances: %#v", got)
	}
}

func TestParseNoMarkersFallsBackToNarrator(t *testing.T) {
	got := Parse("just a block of text\nwith no speakers at all")
	if len(got) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(got))
	}
	if got[0].Speaker != NarratorSpeaker {
		t.Fatalf("expected narrator, got %q", got[0].Speaker)
	}
	if got[0].Text != "just a block of text with no speakers at all" {
		t.Fatalf("unexpected text: %q", got[0].Text)
	}
}

func TestParseLeadingTextBeforeFirstSpeaker(t *testing.T) {
	got := Parse("A cold open with no marker.\nHost: And we begin.")
	want := []Utterance{
		{Speaker: NarratorSpeaker, Text: "A cold open with no marker."},
		{Speaker: "Host", Text: "And we begin."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected utterances: %#v", got)
	}
}

func TestParseEmptyInput(t *testing.T) {
	if got := Parse("   \n\n  "); got != nil {
		t.Fatalf("expected no utterances, got %#v", got)
	}
}

func TestParseOrderPreserved(t *testing.T) {
	in := "A: one\nB: two\nA: three\nC: four"
	got := Parse(in)
	order := make([]string, 0, len(got))
	for _, u := range got {
		order = append(order, u.Speaker+":"+u.Text)
	}
	want := []string{"A:one", "B:two", "A:three", "C:four"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order not preserved: %v", order)
	}
}

func TestParseBareSpeakerMarkerIsContinuation(t *testing.T) {
	got := Parse("Host: Intro\nGuest:")
	if len(got) != 1 {
		t.Fatalf("expected bare marker to join as continuation, got %#v", got)
	}
	if got[0].Text != "Intro Guest:" {
		t.Fatalf("unexpected text: %q", got[0].Text)
	}
}
