package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"LeagueSettle/internal/config"
	"LeagueSettle/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// WebhookNotifier 通过 HTTP 推送网关发送
type WebhookNotifier struct {
	endpoint  string
	authToken string
	client    *http.Client
	logger    *logrus.Logger
}

func NewWebhookNotifier(cfg *config.WebhookConfig, logger *logrus.Logger) (*WebhookNotifier, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("notify.webhook.base_url 未配置")
	}
	return &WebhookNotifier{
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + "/notifications",
		authToken: cfg.AuthToken,
		client:    httpclient.New(cfg, logger),
		logger:    logger,
	}, nil
}

func (n *WebhookNotifier) Send(ctx context.Context, userID uint64, notifyType, title, body string, data map[string]interface{}) error {
	msg := newMessage(userID, notifyType, title, body, data)
	payload, err := msg.encode()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.ID)
	if n.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.authToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	n.logger.WithFields(logrus.Fields{"notification_id": msg.ID, "user_id": userID, "type": notifyType}).
		Debug("notification pushed")
	return nil
}
