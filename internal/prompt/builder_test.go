package prompt

import (
	"strings"
	"testing"
)

func TestBuildEntailmentPromptEmbedsInputs(t *testing.T) {
	pb := NewPromptBuilder()

	history := "user: hi agent: hello"
	last := "user: i need help with my booking"
	intent := "Support Request"

	text := pb.BuildEntailmentPrompt(history, last, intent)

	for _, want := range []string{history, last, intent} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
}

func TestBuildEntailmentPromptDeterministic(t *testing.T) {
	pb := NewPromptBuilder()

	first := pb.BuildEntailmentPrompt("h", "l", "Follow-Up")
	second := pb.BuildEntailmentPrompt("h", "l", "Follow-Up")
	if first != second {
		t.Error("prompt rendering is not deterministic")
	}
}

func TestBuildJudgePromptEmbedsInputsAndJSONContract(t *testing.T) {
	pb := NewPromptBuilder()

	text := pb.BuildJudgePrompt("user: hi", "user: what is the price?", "Pricing Negotiation")

	for _, want := range []string{"user: hi", "user: what is the price?", "Pricing Negotiation", "confidence"} {
		if !strings.Contains(text, want) {
			t.Errorf("judge prompt missing %q", want)
		}
	}
}

func TestFallbackMatchesTemplate(t *testing.T) {
	pb := NewPromptBuilder()
	data := EntailmentPromptData{
		History:     "user: hello",
		LastMessage: "user: any update?",
		Intent:      "Follow-Up",
	}

	rendered, err := pb.Render(TemplateEntailmentPrompt, data)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if rendered != FallbackEntailmentPrompt(data) {
		t.Error("fallback prompt diverged from embedded template")
	}
}
