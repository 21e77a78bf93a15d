package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier 只写日志，开发环境与未配置推送时使用
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, userID uint64, notifyType, title, body string, data map[string]interface{}) error {
	msg := newMessage(userID, notifyType, title, body, data)
	n.logger.WithFields(logrus.Fields{
		"notification_id": msg.ID,
		"user_id":         userID,
		"type":            notifyType,
		"title":           title,
	}).Info(body)
	return nil
}
