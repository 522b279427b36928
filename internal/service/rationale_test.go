package service

import (
	"strings"
	"testing"
)

var testKeywords = map[string][]string{
	"Book Appointment": {"schedule", "appointment", "visit", "viewing", "tour", "meet", "book", "come see"},
	"Support Request":  {"issue", "problem", "help", "support", "not working", "error", "fix", "urgent"},
}

func TestRationaleQuotesBestUserLine(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	text := "user: i want to schedule a viewing for this weekend"
	rationale := g.Generate(text, "Book Appointment", 0.8)

	if !strings.Contains(rationale, "schedule") {
		t.Errorf("rationale missing first matched keyword: %q", rationale)
	}
	if !strings.Contains(rationale, "i want to schedule a viewing for this weekend") {
		t.Errorf("rationale missing quoted user line: %q", rationale)
	}
	if !strings.HasPrefix(rationale, "The user mentioned") {
		t.Errorf("unexpected rationale shape: %q", rationale)
	}
}

func TestRationaleKeywordsWithoutUserLine(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	// Keywords match but no segment carries the user marker.
	text := "agent noted an issue and a problem in the ticket"
	rationale := g.Generate(text, "Support Request", 0.8)

	want := "Keywords detected: 'issue, problem' indicating Support Request"
	if rationale != want {
		t.Errorf("rationale = %q, want %q", rationale, want)
	}
}

func TestRationaleGenericFallback(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	rationale := g.Generate("user: completely unrelated text", "Book Appointment", 0.9)

	want := "Conversation pattern and context indicate Book Appointment"
	if rationale != want {
		t.Errorf("rationale = %q, want %q", rationale, want)
	}
}

func TestRationaleDisabled(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, false, 0.5)

	rationale := g.Generate("user: i want to schedule a visit", "Book Appointment", 0.9)

	want := "Conversation pattern and context indicate Book Appointment"
	if rationale != want {
		t.Errorf("rationale = %q, want %q", rationale, want)
	}
}

func TestRationaleBelowThreshold(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	rationale := g.Generate("user: i want to schedule a visit", "Book Appointment", 0.2)

	if !strings.Contains(rationale, "below") || !strings.Contains(rationale, "threshold") {
		t.Errorf("expected below-threshold note, got %q", rationale)
	}
	if strings.Contains(rationale, "schedule a visit") {
		t.Errorf("below-threshold rationale must not carry evidence: %q", rationale)
	}
}

func TestRationalePicksLineWithMostMatches(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	text := "user: i have a problem | user: please help, this is urgent, the error persists"
	rationale := g.Generate(text, "Support Request", 0.8)

	if !strings.Contains(rationale, "please help, this is urgent, the error persists") {
		t.Errorf("expected the line with most keyword matches, got %q", rationale)
	}
}

func TestRationaleTruncatesLongQuote(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	long := "user: help " + strings.Repeat("x", 120)
	rationale := g.Generate(long, "Support Request", 0.8)

	if !strings.Contains(rationale, "...") {
		t.Errorf("expected truncated quote with ellipsis, got %q", rationale)
	}
	// Quote body is capped at 80 characters including the ellipsis.
	start := strings.Index(rationale, `"`)
	end := strings.LastIndex(rationale, `"`)
	if start == -1 || end <= start {
		t.Fatalf("no quoted section in %q", rationale)
	}
	if quoteLen := end - start - 1; quoteLen > 80 {
		t.Errorf("quote length %d exceeds 80", quoteLen)
	}
}

func TestRationaleUnknownIntent(t *testing.T) {
	g := NewRationaleGenerator(testKeywords, true, 0.5)

	rationale := g.Generate("user: hello", "Pricing Negotiation", 0.8)

	want := "Conversation pattern and context indicate Pricing Negotiation"
	if rationale != want {
		t.Errorf("rationale = %q, want %q", rationale, want)
	}
}
