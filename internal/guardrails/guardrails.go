// Package guardrails implements the response-text policy filter applied to
// every provider adapter's raw output before it becomes a CanonicalResponse.
package guardrails

import (
	"fmt"
	"strings"
)

// Config is the policy applied by Filter. BannedPhrases are compared
// case-insensitively. Invariant: MinLength <= MaxLength.
type Config struct {
	BannedPhrases     []string
	MinLength         int
	MaxLength         int
	RequireDisclaimer bool
	Disclaimer        string
}

// ViolationError is returned when text fails the policy. Message identifies
// the reason (too-short, or the banned phrase matched).
type ViolationError struct {
	Message string
}

func (e *ViolationError) Error() string { return e.Message }

// Filter applies the policy to text in the exact order the spec mandates:
//  1. reject if shorter than MinLength
//  2. truncate (not reject) if longer than MaxLength
//  3. reject if the ORIGINAL (pre-truncation) text contains a banned phrase
//  4. append the disclaimer to the (possibly truncated) text
//
// Step 3 reads the original text deliberately: truncation must not be able
// to hide a banned phrase that appeared past the truncation point.
func Filter(cfg Config, text string) (string, error) {
	if len(text) < cfg.MinLength {
		return "", &ViolationError{Message: "response too short"}
	}

	original := text
	out := text
	if len(out) > cfg.MaxLength {
		out = out[:cfg.MaxLength]
	}

	lowerOriginal := strings.ToLower(original)
	for _, phrase := range cfg.BannedPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lowerOriginal, strings.ToLower(phrase)) {
			return "", &ViolationError{Message: fmt.Sprintf("banned phrase matched: %q", phrase)}
		}
	}

	if cfg.RequireDisclaimer && cfg.Disclaimer != "" {
		out = out + "\n\n" + cfg.Disclaimer
	}

	return out, nil
}
