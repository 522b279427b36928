package preprocess

import (
	"strings"

	"github.com/convoml/intent-classifier-go/internal/domain"
	"github.com/convoml/intent-classifier-go/pkg/errors"
)

// HistorySeparator joins history lines. It is fixed so repeated runs over the
// same input produce byte-identical history strings.
const HistorySeparator = " "

// Window truncates messages to the trailing maxTurns, formats each as
// "<lowercased sender>: <normalized text>", and splits the result into history
// (all but the last line, joined by HistorySeparator) and the last line alone.
// A single remaining message yields an empty history.
func Window(conversationID string, messages []domain.Message, maxTurns int) (*domain.PreprocessedTurn, error) {
	if len(messages) == 0 {
		return nil, errors.NewEmptyConversationError(conversationID)
	}

	windowed := messages
	if maxTurns > 0 && len(windowed) > maxTurns {
		windowed = windowed[len(windowed)-maxTurns:]
	}

	lines := make([]string, 0, len(windowed))
	for _, msg := range windowed {
		sender := strings.ToLower(strings.TrimSpace(msg.Sender))
		lines = append(lines, sender+": "+Normalize(msg.Text))
	}

	turn := &domain.PreprocessedTurn{
		ConversationID: conversationID,
		LastMessage:    lines[len(lines)-1],
	}
	if len(lines) > 1 {
		turn.History = strings.Join(lines[:len(lines)-1], HistorySeparator)
	}

	return turn, nil
}
