package service

import (
	"fmt"
	"strings"

	"github.com/convoml/intent-classifier-go/internal/constants"
	"github.com/convoml/intent-classifier-go/internal/util"
)

// RationaleGenerator produces the human-readable justification attached to
// each prediction. The keyword/quote-extraction strategy ties rationales
// directly to the configured per-intent keyword lists, keeping them auditable.
type RationaleGenerator struct {
	keywords  map[string][]string
	enabled   bool
	threshold float64
}

func NewRationaleGenerator(keywords map[string][]string, enabled bool, threshold float64) *RationaleGenerator {
	return &RationaleGenerator{
		keywords:  keywords,
		enabled:   enabled,
		threshold: threshold,
	}
}

// Generate builds the rationale for a prediction. When rationales are disabled
// the generic fallback is used; below the confidence threshold a low-confidence
// note replaces detailed evidence.
func (g *RationaleGenerator) Generate(conversationText, predictedIntent string, confidence float64) string {
	if !g.enabled {
		return genericRationale(predictedIntent)
	}

	if confidence < g.threshold {
		return fmt.Sprintf("Classification confidence %.2f was below the %.2f threshold for %s",
			confidence, g.threshold, predictedIntent)
	}

	matched := g.matchedKeywords(conversationText, predictedIntent)
	if len(matched) == 0 {
		return genericRationale(predictedIntent)
	}

	if best := bestUserLine(conversationText, matched); best != "" {
		return fmt.Sprintf("The user mentioned '%s' in: %q", matched[0], best)
	}

	preview := matched
	if len(preview) > 2 {
		preview = preview[:2]
	}
	return fmt.Sprintf("Keywords detected: '%s' indicating %s", strings.Join(preview, ", "), predictedIntent)
}

// matchedKeywords returns the configured keywords for the intent that appear
// as case-sensitive substrings of the conversation text, in configured order.
func (g *RationaleGenerator) matchedKeywords(conversationText, intent string) []string {
	var matched []string
	for _, kw := range g.keywords[intent] {
		if strings.Contains(conversationText, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// bestUserLine splits the conversation on the line delimiter, keeps candidate
// user lines, and picks the one with the most keyword occurrences (strict max,
// first seen wins). The "user:" prefix is stripped and the quote truncated to
// the configured length with a trailing ellipsis.
func bestUserLine(conversationText string, matched []string) string {
	var (
		best       string
		maxMatches int
	)

	prefixStripper := strings.NewReplacer("user:", "", "User:", "")

	for _, segment := range strings.Split(conversationText, constants.RationaleConfig.LineDelimiter) {
		line := strings.TrimSpace(segment)
		if !strings.Contains(strings.ToLower(line), constants.RationaleConfig.UserLineToken) {
			continue
		}

		lowered := strings.ToLower(line)
		matches := 0
		for _, kw := range matched {
			if strings.Contains(lowered, kw) {
				matches++
			}
		}

		if matches > maxMatches {
			maxMatches = matches
			best = strings.TrimSpace(prefixStripper.Replace(line))
		}
	}

	if len([]rune(best)) > constants.RationaleConfig.MaxQuoteLength {
		best = util.TruncateString(best, constants.RationaleConfig.MaxQuoteLength-3)
	}

	return best
}

func genericRationale(intent string) string {
	return fmt.Sprintf("Conversation pattern and context indicate %s", intent)
}
