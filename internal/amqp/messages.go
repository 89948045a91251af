package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to export all data and upload it to
// the remote store. It carries no payload; the worker reads the current
// snapshot when it processes the request.
type SyncRequestMessage struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncRequestMessage creates a sync request stamped with the current time
func NewSyncRequestMessage(reason string) *SyncRequestMessage {
	return &SyncRequestMessage{
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestMessageFromJSON creates a message from JSON bytes
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReminderItem is one pending expense listed in a reminder.
type ReminderItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Amount      string `json:"amount"`
}

// ReminderMessage lists the pending expenses of a month that are due today
// or already overdue.
type ReminderMessage struct {
	Month     string         `json:"month"`
	Date      string         `json:"date"` // dd/mm/yyyy the lists were computed for
	DueToday  []ReminderItem `json:"dueToday"`
	Overdue   []ReminderItem `json:"overdue"`
	Timestamp time.Time      `json:"timestamp"`
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
