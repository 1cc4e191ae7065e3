package feed

import (
	"encoding/json"
	"time"
)

// SnapshotMessage is the serialized form of one feed delivery: the full
// document set for a single user at publish time.
type SnapshotMessage struct {
	UserID      string     `json:"user_id"`
	Documents   []Document `json:"documents"`
	PublishedAt time.Time  `json:"published_at"`
}

// NewSnapshotMessage builds a message for the given user and document set.
func NewSnapshotMessage(userID string, docs []Document) *SnapshotMessage {
	return &SnapshotMessage{
		UserID:      userID,
		Documents:   docs,
		PublishedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotMessageFromJSON creates a message from JSON bytes.
func SnapshotMessageFromJSON(data []byte) (*SnapshotMessage, error) {
	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
