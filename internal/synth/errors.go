package synth

import (
	"errors"
	"fmt"
	"strings"
)

// Reason classifies a vendor failure for the retry policy.
type Reason string

const (
	ReasonAuth             Reason = "auth"
	ReasonQuota            Reason = "quota"
	ReasonModelUnavailable Reason = "model_unavailable"
	ReasonEmptyResponse    Reason = "empty_response"
	ReasonUnknown          Reason = "unknown"
)

// VendorError wraps a failure surfaced by a TTS vendor, carrying the
// classified reason and the backend that produced it.
type VendorError struct {
	Backend string
	Reason  Reason
	Err     error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Reason, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }

// Retryable reports whether the retry controller may attempt the call
// again. Bad credentials never recover on retry; everything else is
// treated as transient, including quota and empty payloads.
func (e *VendorError) Retryable() bool {
	return e.Reason != ReasonAuth
}

// NewVendorError wraps err with a reason classified from its message.
func NewVendorError(backend string, err error) *VendorError {
	return &VendorError{Backend: backend, Reason: Classify(err), Err: err}
}

// Classify derives a failure reason by inspecting the vendor error
// message. Vendors disagree on wording, so this is substring matching
// over the usual suspects.
func Classify(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "unauthorized", "api key", "invalid authentication", "permission denied", "forbidden"):
		return ReasonAuth
	case containsAny(msg, "429", "quota", "rate limit", "too many requests", "resource exhausted"):
		return ReasonQuota
	case containsAny(msg, "model not found", "model is not", "model unavailable", "no such model", "model_not_found"):
		return ReasonModelUnavailable
	case containsAny(msg, "empty payload", "no audio content", "empty response"):
		return ReasonEmptyResponse
	default:
		return ReasonUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
