package report

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestComposer() *Composer {
	return NewComposer(zerolog.Nop())
}

func TestComposeSuccess(t *testing.T) {
	c := newTestComposer()
	got := c.Compose(OutcomeSuccess, map[string]string{
		"reporter":   "Nurse A",
		"patient":    "Baby X",
		"patient_id": "p123",
		"weight":     "11",
		"height":     "85",
		"muac":       "14",
		"oedema":     "No",
	})
	want := "Thanks Nurse A. Nutrition report for Baby X (p123):\n" +
		"weight: 11 kg\nheight: 85 cm\nmuac: 14 cm\noedema: No"
	if got != want {
		t.Errorf("Compose = %q, want %q", got, want)
	}
}

func TestComposeHelpIncludesUsage(t *testing.T) {
	c := newTestComposer()
	got := c.Compose(OutcomeHelp, map[string]string{"prefix": "nutrition", "keyword": "report"})
	if !strings.HasPrefix(got, "To create a nutrition report, send: nutrition report ") {
		t.Errorf("help reply = %q", got)
	}
	if !strings.Contains(got, "<patient_id>") {
		t.Errorf("help reply missing usage: %q", got)
	}
}

func TestComposeUnknownOutcomeFallsBackToError(t *testing.T) {
	c := newTestComposer()
	got := c.Compose(Outcome("nope"), nil)
	if got != templates[OutcomeError] {
		t.Errorf("Compose = %q, want generic error reply", got)
	}
}

func TestComposeUnfilledPlaceholderFallsBackToError(t *testing.T) {
	c := newTestComposer()
	got := c.Compose(OutcomeFormError, nil)
	if got != templates[OutcomeError] {
		t.Errorf("Compose = %q, want generic error reply", got)
	}
}

func TestComposeDoesNotRecurseIntoValues(t *testing.T) {
	// A sender-controlled value containing brace syntax must render
	// literally, not trip the unfilled-placeholder check.
	c := newTestComposer()
	got := c.Compose(OutcomeFormError, map[string]string{"message": "weird {input} here"})
	if got != "Sorry, the system could not process your report: weird {input} here" {
		t.Errorf("Compose = %q", got)
	}
}
