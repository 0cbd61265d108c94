// Package voices maps script speakers to vendor voice identities. The
// mapping is built once per job and never changes afterwards: backends
// that bind voice identity to declaration order inside a request rely
// on every batch seeing the same order.
package voices

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/podforge/podforge-core/internal/config"
	"github.com/podforge/podforge-core/internal/script"
)

// ErrTooManySpeakers is returned when a script names more distinct
// speakers than the selected backend can voice in one job.
var ErrTooManySpeakers = errors.New("too many distinct speakers")

// SpeakerVoice is one frozen mapping entry. Order is the speaker's
// position in the deterministic sort, assigned at construction time.
type SpeakerVoice struct {
	Speaker string
	VoiceID string
	Style   string
	Order   int
}

// Mapping is the frozen speaker-to-voice table for one job.
type Mapping struct {
	bySpeaker map[string]SpeakerVoice
	ordered   []SpeakerVoice
}

// Lookup returns the entry for a speaker name.
func (m *Mapping) Lookup(speaker string) (SpeakerVoice, bool) {
	sv, ok := m.bySpeaker[speaker]
	return sv, ok
}

// Ordered returns all entries in declaration order.
func (m *Mapping) Ordered() []SpeakerVoice {
	out := make([]SpeakerVoice, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Len reports the number of distinct speakers in the mapping.
func (m *Mapping) Len() int { return len(m.ordered) }

// Resolve builds the mapping for a parsed script. maxSpeakers bounds the
// number of distinct speakers (0 means unbounded); exceeding it is a
// configuration error detected before any vendor call.
func Resolve(items []script.Utterance, roles config.RolesConfig, maxSpeakers int) (*Mapping, error) {
	seen := make(map[string]bool)
	var distinct []string
	for _, u := range items {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			distinct = append(distinct, u.Speaker)
		}
	}
	if len(distinct) == 0 {
		return nil, errors.New("script has no speakers")
	}
	if maxSpeakers > 0 && len(distinct) > maxSpeakers {
		return nil, fmt.Errorf("%w: script has %d distinct speakers, backend supports at most %d",
			ErrTooManySpeakers, len(distinct), maxSpeakers)
	}

	// Host-like speakers sort first, the rest lexicographically. The
	// resulting index is the entry's permanent order for this job.
	sort.SliceStable(distinct, func(i, j int) bool {
		hi, hj := isHostLike(distinct[i], roles), isHostLike(distinct[j], roles)
		if hi != hj {
			return hi
		}
		return distinct[i] < distinct[j]
	})

	m := &Mapping{bySpeaker: make(map[string]SpeakerVoice, len(distinct))}
	guestsAssigned := 0
	for i, name := range distinct {
		role := classify(name, roles, &guestsAssigned)
		sv := SpeakerVoice{
			Speaker: name,
			VoiceID: role.Voice,
			Style:   role.Style,
			Order:   i,
		}
		m.bySpeaker[name] = sv
		m.ordered = append(m.ordered, sv)
	}
	return m, nil
}

// isHostLike implements the role heuristic: an explicit host-name match
// or a name containing "host". The heuristic is a policy choice, not a
// vendor contract.
func isHostLike(speaker string, roles config.RolesConfig) bool {
	lower := strings.ToLower(strings.TrimSpace(speaker))
	if roles.Host.Name != "" && lower == strings.ToLower(roles.Host.Name) {
		return true
	}
	return strings.Contains(lower, "host")
}

func isNarrator(speaker string) bool {
	return strings.EqualFold(strings.TrimSpace(speaker), script.NarratorSpeaker)
}

// classify picks the voice for one speaker. Narrator gets the dedicated
// narrator voice when one is configured; unmatched guest-like speakers
// consume the guest role first, then the extras in declared order, and
// fall back to the guest voice when extras run out.
func classify(speaker string, roles config.RolesConfig, guestsAssigned *int) config.RoleConfig {
	if isHostLike(speaker, roles) {
		return roles.Host
	}
	if isNarrator(speaker) && roles.Narrator.Voice != "" {
		return roles.Narrator
	}
	for _, extra := range roles.Extras {
		if strings.EqualFold(extra.Name, strings.TrimSpace(speaker)) {
			return extra
		}
	}
	if roles.Guest.Name != "" && strings.EqualFold(roles.Guest.Name, strings.TrimSpace(speaker)) {
		return roles.Guest
	}

	n := *guestsAssigned
	*guestsAssigned = n + 1
	if n == 0 {
		return roles.Guest
	}
	if n-1 < len(roles.Extras) {
		return roles.Extras[n-1]
	}
	return roles.Guest
}
