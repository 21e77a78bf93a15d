package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RewardType 成就奖励类型
type RewardType string

const (
	RewardNone      RewardType = "NONE"
	RewardStatBoost RewardType = "STAT_BOOST"
	RewardCosmetic  RewardType = "COSMETIC"
)

// CosmeticType 装扮类型，非 PREMIUM 用户只能获得 SHOWCASE_SLOT
type CosmeticType string

const (
	CosmeticShowcaseSlot CosmeticType = "SHOWCASE_SLOT"
	CosmeticFrame        CosmeticType = "FRAME"
	CosmeticTitle        CosmeticType = "TITLE"
	CosmeticBadge        CosmeticType = "BADGE"
)

// Achievement 成就定义：条件类型 + 目标值 + 奖励
type Achievement struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Code           string         `gorm:"column:code;type:varchar(64);uniqueIndex;not null"`
	Name           string         `gorm:"column:name;type:varchar(128);not null"`
	ConditionType  string         `gorm:"column:condition_type;type:varchar(32);not null"`
	Target         float64        `gorm:"column:target;type:numeric(8,2);not null"`
	RewardType     RewardType     `gorm:"column:reward_type;type:varchar(16);default:NONE"`
	RewardStats    datatypes.JSON `gorm:"column:reward_stats;type:jsonb;comment:属性加成 {stat: delta}"`
	RewardCosmetic string         `gorm:"column:reward_cosmetic;type:varchar(64);comment:解锁装扮键"`
	SortOrder      int            `gorm:"column:sort_order;type:int;default:0"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// StatDeltas 解析 RewardStats，为空时返回空 map
func (a *Achievement) StatDeltas() (map[string]float64, error) {
	deltas := make(map[string]float64)
	if len(a.RewardStats) == 0 {
		return deltas, nil
	}
	if err := json.Unmarshal(a.RewardStats, &deltas); err != nil {
		return nil, err
	}
	return deltas, nil
}

// UserAchievement 每用户进度账本，首次评估时惰性创建
type UserAchievement struct {
	ID              uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          uint64     `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_achievement"`
	AchievementID   uint64     `gorm:"column:achievement_id;type:bigint;not null;uniqueIndex:uk_user_achievement"`
	CurrentProgress float64    `gorm:"column:current_progress;type:numeric(10,2);default:0"`
	IsCompleted     bool       `gorm:"column:is_completed;type:boolean;default:false"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	ClaimedAt       *time.Time `gorm:"column:claimed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Achievement) TableName() string     { return "achievements" }
func (UserAchievement) TableName() string { return "user_achievements" }
