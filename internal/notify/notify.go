package notify

import (
	"fmt"

	"LeagueSettle/internal/config"
	"LeagueSettle/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// New 按 notify.driver 创建通知分发实现
func New(cfg *config.NotifyConfig, logger *logrus.Logger) (interfaces.Notifier, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "webhook":
		return NewWebhookNotifier(&cfg.Webhook, logger)
	case "redis":
		return NewRedisNotifier(&cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("未支持的 notify.driver: %s", cfg.Driver)
	}
}
