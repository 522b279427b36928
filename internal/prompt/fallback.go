package prompt

import "fmt"

// FallbackEntailmentPrompt mirrors templates/entailment_prompt.tmpl so scoring
// keeps working if template rendering ever fails.
func FallbackEntailmentPrompt(data EntailmentPromptData) string {
	return fmt.Sprintf(`Analyze the following multi-turn conversation between a user and a business:

%s

The last message was:
"%s"

Question: Does the overall conversation, indicate the user's intent is '%s'?
`, data.History, data.LastMessage, data.Intent)
}

// FallbackJudgePrompt mirrors templates/judge_prompt.tmpl.
func FallbackJudgePrompt(data EntailmentPromptData) string {
	return fmt.Sprintf(`You are an intent entailment judge for multi-turn conversations.

Analyze the following multi-turn conversation between a user and a business:

%s

The last message was:
"%s"

Question: Does the overall conversation, indicate the user's intent is '%s'?

Respond with JSON only:
{
  "confidence": <number, 0.0 to 1.0, probability that the intent matches>
}
`, data.History, data.LastMessage, data.Intent)
}
