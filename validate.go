package mia

import "fmt"

// Validate checks universal constraints on StreamRequest.
// Source implementations may apply additional backend-specific validation.
func (r StreamRequest) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("session ID is required: %w", ErrValidation)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return fmt.Errorf("date range end precedes start: %w", ErrValidation)
	}
	return nil
}

// ValidateMessage checks that a message's payload is coherent with its kind.
func ValidateMessage(msg ChatMessage) error {
	switch msg.Kind {
	case KindAgentText, KindUserText:
		if msg.Text == "" {
			return fmt.Errorf("%s message requires text: %w", msg.Kind, ErrValidation)
		}
		if msg.Card != nil || len(msg.Choices) > 0 {
			return fmt.Errorf("%s message must not carry card or choices: %w", msg.Kind, ErrValidation)
		}
	case KindRichCard:
		if msg.Card == nil {
			return fmt.Errorf("rich_card message requires a card: %w", ErrValidation)
		}
		if len(msg.Choices) > 0 {
			return fmt.Errorf("rich_card message must not carry choices: %w", ErrValidation)
		}
	case KindChoiceSet:
		if len(msg.Choices) == 0 {
			return fmt.Errorf("choice_set message requires at least one choice: %w", ErrValidation)
		}
		for i, ch := range msg.Choices {
			if ch.Label == "" {
				return fmt.Errorf("choice %d requires a label: %w", i, ErrValidation)
			}
			if ch.Action == "" {
				return fmt.Errorf("choice %d requires an action token: %w", i, ErrValidation)
			}
		}
	default:
		return fmt.Errorf("unknown message kind %q: %w", msg.Kind, ErrValidation)
	}
	return nil
}
