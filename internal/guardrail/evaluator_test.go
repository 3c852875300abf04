package guardrail

import (
	"strings"
	"testing"
)

func newTestEvaluator() *Evaluator {
	return New([]string{"inappropriate", "banned", "forbidden"}, 100)
}

func TestEvaluate_Clean(t *testing.T) {
	e := newTestEvaluator()
	v := e.Evaluate("this response is totally fine")
	if v.Tripped {
		t.Fatalf("expected clean verdict, got tripped with evidence %q", v.Evidence)
	}
}

func TestEvaluate_Tripped(t *testing.T) {
	e := newTestEvaluator()
	v := e.Evaluate("this is inappropriate content")
	if !v.Tripped {
		t.Fatal("expected tripped verdict")
	}
	if !strings.Contains(v.Evidence, "inappropriate") {
		t.Errorf("expected evidence to name the matched term, got %q", v.Evidence)
	}
}

func TestEvaluate_CaseInsensitive(t *testing.T) {
	e := newTestEvaluator()
	if v := e.Evaluate("This Is FORBIDDEN territory"); !v.Tripped {
		t.Error("expected case-insensitive match to trip")
	}
}

func TestEvaluateStreaming_Debounce(t *testing.T) {
	e := newTestEvaluator()

	// Short partial text containing a banned term must not fire yet.
	if v := e.EvaluateStreaming("this is banned"); v.Tripped {
		t.Error("expected debounce to suppress evaluation of short partial text")
	}

	long := strings.Repeat("padding words here ", 10) + "and this is banned"
	if v := e.EvaluateStreaming(long); !v.Tripped {
		t.Error("expected trip once enough text accumulated")
	}
}

func TestNew_NormalizesTerms(t *testing.T) {
	e := New([]string{"  Banned  ", ""}, 0)
	if v := e.Evaluate("a banned word"); !v.Tripped {
		t.Error("expected trimmed, lower-cased term to match")
	}
}
