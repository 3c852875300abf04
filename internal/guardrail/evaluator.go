// Package guardrail screens candidate assistant output before it is surfaced.
//
// The default policy is a plain lower-cased containment check against a small
// denylist, with no stemming and no context awareness. It is a conservative
// placeholder safety layer, not a moderation system.
package guardrail

import "strings"

// Verdict is the outcome of screening one candidate output.
// Evidence carries a short diagnostic (matched term plus a snippet) and is
// never persisted.
type Verdict struct {
	Tripped  bool
	Evidence string
}

// Evaluator is a synchronous denylist screen.
// Safe for concurrent use; the term list is fixed at construction.
type Evaluator struct {
	denylist      []string
	debounceChars int
}

// New creates an Evaluator. debounceChars is the minimum accumulated text
// length before a streaming evaluation fires; zero disables debouncing.
func New(denylist []string, debounceChars int) *Evaluator {
	terms := make([]string, 0, len(denylist))
	for _, t := range denylist {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return &Evaluator{denylist: terms, debounceChars: debounceChars}
}

// Evaluate screens the full candidate text and returns a Verdict.
func (e *Evaluator) Evaluate(text string) Verdict {
	lowered := strings.ToLower(text)
	for _, term := range e.denylist {
		if strings.Contains(lowered, term) {
			return Verdict{
				Tripped:  true,
				Evidence: "matched " + term + ": " + snippet(text, 50),
			}
		}
	}
	return Verdict{}
}

// EvaluateStreaming screens partial text accumulated from a streaming
// response. It returns an untripped Verdict until enough trailing text has
// built up, so truncated tokens never cause false positives.
func (e *Evaluator) EvaluateStreaming(partial string) Verdict {
	if len(partial) < e.debounceChars {
		return Verdict{}
	}
	return e.Evaluate(partial)
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
