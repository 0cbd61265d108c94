package voices

import (
	"errors"
	"testing"

	"github.com/podforge/podforge-core/internal/config"
	"github.com/podforge/podforge-core/internal/script"
)

func testRoles() config.RolesConfig {
	return config.RolesConfig{
		Host:     config.RoleConfig{Name: "Kevin", Voice: "nova", Style: "energetic"},
		Guest:    config.RoleConfig{Name: "Guest", Voice: "onyx", Style: "calm"},
		Narrator: config.RoleConfig{Name: "Narrator", Voice: "alloy"},
		Extras:   []config.RoleConfig{{Name: "Expert", Voice: "echo"}},
	}
}

func utter(speakers ...string) []script.Utterance {
	out := make([]script.Utterance, 0, len(speakers))
	for _, s := range speakers {
		out = append(out, script.Utterance{Speaker: s, Text: "hi"})
	}
	return out
}

func TestResolveHostSortsFirst(t *testing.T) {
	m, err := Resolve(utter("Zara", "Kevin", "Adam"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ordered := m.Ordered()
	if ordered[0].Speaker != "Kevin" || ordered[0].Order != 0 {
		t.Fatalf("host not first: %#v", ordered)
	}
	if ordered[1].Speaker != "Adam" || ordered[2].Speaker != "Zara" {
		t.Fatalf("non-hosts not lexicographic: %#v", ordered)
	}
	if ordered[0].VoiceID != "nova" {
		t.Fatalf("host voice wrong: %q", ordered[0].VoiceID)
	}
}

func TestResolveHostByNameSubstring(t *testing.T) {
	m, err := Resolve(utter("Podcast Host", "Sam"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sv, ok := m.Lookup("Podcast Host")
	if !ok || sv.VoiceID != "nova" || sv.Order != 0 {
		t.Fatalf("'host' substring not classified host-like: %#v", sv)
	}
}

func TestResolveNarratorVoice(t *testing.T) {
	m, err := Resolve(utter("Narrator", "Kevin"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sv, _ := m.Lookup("Narrator")
	if sv.VoiceID != "alloy" {
		t.Fatalf("narrator voice wrong: %q", sv.VoiceID)
	}
}

func TestResolveExtraByName(t *testing.T) {
	m, err := Resolve(utter("Kevin", "Expert"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sv, _ := m.Lookup("Expert")
	if sv.VoiceID != "echo" {
		t.Fatalf("extra voice wrong: %q", sv.VoiceID)
	}
}

func TestResolveDistinctGuestsGetDistinctVoices(t *testing.T) {
	m, err := Resolve(utter("Kevin", "Alice", "Bob"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alice, _ := m.Lookup("Alice")
	bob, _ := m.Lookup("Bob")
	if alice.VoiceID == bob.VoiceID {
		t.Fatalf("expected distinct voices while extras remain, both got %q", alice.VoiceID)
	}
}

func TestResolveTooManySpeakers(t *testing.T) {
	_, err := Resolve(utter("A", "B", "C"), testRoles(), 2)
	if !errors.Is(err, ErrTooManySpeakers) {
		t.Fatalf("expected ErrTooManySpeakers, got %v", err)
	}
}

func TestResolveEmptyScript(t *testing.T) {
	if _, err := Resolve(nil, testRoles(), 0); err == nil {
		t.Fatal("expected error for empty script")
	}
}

func TestResolveDeterministicAcrossCalls(t *testing.T) {
	// Same speakers in different utterance order must yield identical
	// order assignments: batches built later depend on it.
	a, err := Resolve(utter("Mia", "Kevin", "Liam"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Resolve(utter("Liam", "Mia", "Kevin", "Liam"), testRoles(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"Kevin", "Liam", "Mia"} {
		sa, _ := a.Lookup(name)
		sb, _ := b.Lookup(name)
		if sa.Order != sb.Order || sa.VoiceID != sb.VoiceID {
			t.Fatalf("mapping not stable for %s: %#v vs %#v", name, sa, sb)
		}
	}
}
