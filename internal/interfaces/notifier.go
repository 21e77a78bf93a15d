package interfaces

import "context"

// 通知类型
const (
	NotifyMatchResult         = "MATCH_RESULT"
	NotifyHonorAward          = "HONOR_AWARD"
	NotifyDuelResult          = "DUEL_RESULT"
	NotifyAchievementUnlocked = "ACHIEVEMENT_UNLOCKED"
)

// Notifier 通知分发。调用方 fire-and-forget，失败只记录日志
type Notifier interface {
	Send(ctx context.Context, userID uint64, notifyType, title, body string, data map[string]interface{}) error
}
