package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message 推送消息体，ID 作为下游幂等键
type Message struct {
	ID     string            `json:"id"`
	UserID uint64            `json:"user_id"`
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   datatypes.JSONMap `json:"data,omitempty"`
	SentAt time.Time         `json:"sent_at"`
}

func newMessage(userID uint64, notifyType, title, body string, data map[string]interface{}) *Message {
	return &Message{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   notifyType,
		Title:  title,
		Body:   body,
		Data:   datatypes.JSONMap(data),
		SentAt: time.Now().UTC(),
	}
}

func (m *Message) encode() ([]byte, error) {
	return json.Marshal(m)
}
