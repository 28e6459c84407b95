package queue

import "encoding/json"

// Message is the wake-up nudge sent when a migration job is enqueued. The
// durable job row is authoritative; a lost nudge only delays pickup until
// the next worker poll.
type Message struct {
	JobID          string `json:"jobId"`
	InvitationCode string `json:"invitationCode"`
	EnqueuedAt     string `json:"enqueuedAt"`
	Version        int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
