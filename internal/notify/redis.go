package notify

import (
	"context"
	"fmt"

	"LeagueSettle/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisNotifier 发布到 Redis 频道，由推送服务订阅投递
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *logrus.Logger
}

func NewRedisNotifier(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisNotifier, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("notify.redis.addr 未配置")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisNotifier{client: client, channel: cfg.Channel, logger: logger}, nil
}

func (n *RedisNotifier) Send(ctx context.Context, userID uint64, notifyType, title, body string, data map[string]interface{}) error {
	msg := newMessage(userID, notifyType, title, body, data)
	payload, err := msg.encode()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	return nil
}

// Ping 启动时检查连通性
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
