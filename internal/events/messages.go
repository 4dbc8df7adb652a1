package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/cache"
)

// InvalidationMessage announces that a mutation dirtied a set of cache
// tags. UserID scopes the follow-up work (the balance reconciler re-reads
// the ledger as that user).
type InvalidationMessage struct {
	UserID    uuid.UUID   `json:"user_id"`
	Tags      []cache.Tag `json:"tags"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewInvalidationMessage(userID uuid.UUID, tags []cache.Tag) *InvalidationMessage {
	return &InvalidationMessage{
		UserID:    userID,
		Tags:      tags,
		Timestamp: time.Now(),
	}
}

// PiggyBankIDs extracts the ids of individually tagged banks.
func (m *InvalidationMessage) PiggyBankIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, tag := range m.Tags {
		s := string(tag)
		const prefix = string(cache.TagPiggyBanks) + ":"
		if len(s) > len(prefix) && s[:len(prefix)] == prefix {
			if id, err := uuid.Parse(s[len(prefix):]); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// ToJSON converts the message to JSON bytes
func (m *InvalidationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func InvalidationMessageFromJSON(data []byte) (*InvalidationMessage, error) {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
