package mia

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind discriminates ChatMessage records in the conversation log.
type MessageKind string

const (
	KindAgentText MessageKind = "agent_text"
	KindUserText  MessageKind = "user_text"
	KindRichCard  MessageKind = "rich_card"
	KindChoiceSet MessageKind = "choice_set"
)

// ChoiceWeight controls the visual prominence of a choice.
type ChoiceWeight string

const (
	WeightPrimary   ChoiceWeight = "primary"
	WeightSecondary ChoiceWeight = "secondary"
)

// Choice is a user-selectable branch point. It is consumed exactly once by
// the conversation machine; activating it echoes a user-text message before
// the handler for its Action runs.
type Choice struct {
	Label  string
	Action Action
	Weight ChoiceWeight
}

// Card is the payload of a rich-card message: a titled set of metric rows.
type Card struct {
	Title string
	Rows  []CardRow
}

// CardRow is a single labeled metric on a Card.
type CardRow struct {
	Label string
	Value string
}

// ChatMessage is one entry in the conversation log. Once displayed it is
// immutable: the log is append-only and messages are never edited or removed
// except by a full conversation reset.
//
// AlreadyRevealed marks a message restored from a persisted transcript.
// The queue skips its think-time delay and the presentation skips any
// reveal animation for it.
type ChatMessage struct {
	ID              string
	Kind            MessageKind
	Text            string
	Card            *Card
	Choices         []Choice
	AlreadyRevealed bool
	Timestamp       time.Time
}

// AgentText creates an agent-text message draft.
func AgentText(text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Kind:      KindAgentText,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// UserText creates a user-text message. Used as the audit echo of a choice.
func UserText(text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Kind:      KindUserText,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// RichCard creates a rich-card message draft.
func RichCard(card Card) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Kind:      KindRichCard,
		Card:      &card,
		Timestamp: time.Now(),
	}
}

// ChoiceSet creates a message presenting one or more choices. The text is
// the prompt shown above the choices and may be empty.
func ChoiceSet(text string, choices ...Choice) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Kind:      KindChoiceSet,
		Text:      text,
		Choices:   choices,
		Timestamp: time.Now(),
	}
}
