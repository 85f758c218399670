// Package json persists a Conversation as a versioned JSON envelope.
// Messages loaded from disk come back with AlreadyRevealed set, so a
// replayed conversation skips think-time and reveal animation.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ElevenAndOne/mia"
)

// envelope is the v1 wire format for a persisted conversation.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a ChatMessage with a kind
// discriminator.
type messageDTO struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Text      string      `json:"text,omitempty"`
	Card      *cardDTO    `json:"card,omitempty"`
	Choices   []choiceDTO `json:"choices,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type cardDTO struct {
	Title string       `json:"title"`
	Rows  []cardRowDTO `json:"rows"`
}

type cardRowDTO struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type choiceDTO struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Weight string `json:"weight,omitempty"`
}

// MarshalConversation serializes a Conversation to JSON in v1 envelope format.
func MarshalConversation(c mia.Conversation) ([]byte, error) {
	env := envelope{
		Version:   1,
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]messageDTO, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		env.Messages[i] = marshalMessage(msg)
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalConversation deserializes a Conversation from JSON in v1
// envelope format. Every restored message is marked AlreadyRevealed.
func UnmarshalConversation(data []byte) (mia.Conversation, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return mia.Conversation{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return mia.Conversation{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]mia.ChatMessage, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return mia.Conversation{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return mia.Conversation{
		ID:        env.ID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Messages:  msgs,
	}, nil
}

// Save writes a Conversation to a JSON file, creating parent directories as
// needed. The write is atomic: tmp file then rename.
func Save(path string, c mia.Conversation) error {
	data, err := MarshalConversation(c)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Conversation from a JSON file.
func Load(path string) (mia.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mia.Conversation{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalConversation(data)
}

func marshalMessage(msg mia.ChatMessage) messageDTO {
	dto := messageDTO{
		ID:        msg.ID,
		Kind:      string(msg.Kind),
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
	if msg.Card != nil {
		card := cardDTO{Title: msg.Card.Title, Rows: make([]cardRowDTO, len(msg.Card.Rows))}
		for i, row := range msg.Card.Rows {
			card.Rows[i] = cardRowDTO{Label: row.Label, Value: row.Value}
		}
		dto.Card = &card
	}
	for _, ch := range msg.Choices {
		dto.Choices = append(dto.Choices, choiceDTO{
			Label:  ch.Label,
			Action: string(ch.Action),
			Weight: string(ch.Weight),
		})
	}
	return dto
}

func unmarshalMessage(dto messageDTO) (mia.ChatMessage, error) {
	msg := mia.ChatMessage{
		ID:              dto.ID,
		Kind:            mia.MessageKind(dto.Kind),
		Text:            dto.Text,
		AlreadyRevealed: true,
		Timestamp:       dto.Timestamp,
	}
	if dto.Card != nil {
		card := mia.Card{Title: dto.Card.Title, Rows: make([]mia.CardRow, len(dto.Card.Rows))}
		for i, row := range dto.Card.Rows {
			card.Rows[i] = mia.CardRow{Label: row.Label, Value: row.Value}
		}
		msg.Card = &card
	}
	for _, ch := range dto.Choices {
		msg.Choices = append(msg.Choices, mia.Choice{
			Label:  ch.Label,
			Action: mia.Action(ch.Action),
			Weight: mia.ChoiceWeight(ch.Weight),
		})
	}
	if err := mia.ValidateMessage(msg); err != nil {
		return mia.ChatMessage{}, err
	}
	return msg, nil
}
