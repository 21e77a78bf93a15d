package model

import (
	"time"
)

// UserTier 账号等级（决定可解锁的装扮类型）
type UserTier string

const (
	TierFree    UserTier = "FREE"
	TierPremium UserTier = "PREMIUM"
)

type User struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Nickname  string    `gorm:"column:nickname;type:varchar(64);not null;comment:昵称"`
	Tier      UserTier  `gorm:"column:tier;type:varchar(16);default:FREE;comment:账号等级：FREE/PREMIUM"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

type League struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name      string    `gorm:"column:name;type:varchar(128);not null;comment:联赛名称"`
	OwnerID   uint64    `gorm:"column:owner_id;type:bigint;not null;comment:创建者"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
}

// LeagueMember 联赛成员。滚动均值与计数器在每次结算时增量更新，不从历史重算
type LeagueMember struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	LeagueID         uint64    `gorm:"column:league_id;type:bigint;not null;uniqueIndex:uk_league_user;comment:联赛ID"`
	UserID           uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_league_user;index;comment:用户ID"`
	Role             string    `gorm:"column:role;type:varchar(16);default:PLAYER;comment:角色：ADMIN/PLAYER"`
	LeagueOverall    *float64  `gorm:"column:league_overall;type:numeric(5,3);comment:联赛综合评分滚动均值"`
	LeaguePace       *float64  `gorm:"column:league_pace;type:numeric(5,3);comment:速度滚动均值"`
	LeagueTechnique  *float64  `gorm:"column:league_technique;type:numeric(5,3);comment:技术滚动均值"`
	LeaguePhysical   *float64  `gorm:"column:league_physical;type:numeric(5,3);comment:身体滚动均值"`
	LeagueShooting   *float64  `gorm:"column:league_shooting;type:numeric(5,3);comment:射门滚动均值"`
	LeagueDefense    *float64  `gorm:"column:league_defense;type:numeric(5,3);comment:防守滚动均值"`
	PaceSamples      int       `gorm:"column:pace_samples;type:int;default:0;comment:速度评分样本数"`
	TechniqueSamples int       `gorm:"column:technique_samples;type:int;default:0;comment:技术评分样本数"`
	PhysicalSamples  int       `gorm:"column:physical_samples;type:int;default:0;comment:身体评分样本数"`
	ShootingSamples  int       `gorm:"column:shooting_samples;type:int;default:0;comment:射门评分样本数"`
	DefenseSamples   int       `gorm:"column:defense_samples;type:int;default:0;comment:防守评分样本数"`
	MatchesPlayed    int       `gorm:"column:matches_played;type:int;default:0;comment:已结算出场数"`
	MVPCount         int       `gorm:"column:mvp_count;type:int;default:0;comment:MVP次数"`
	TroncoCount      int       `gorm:"column:tronco_count;type:int;default:0;comment:最差球员次数"`
	FantasmaCount    int       `gorm:"column:fantasma_count;type:int;default:0;comment:幽灵次数"`
	DuelCount        int       `gorm:"column:duel_count;type:int;default:0;comment:对决胜利次数"`
	PredictionCount  int       `gorm:"column:prediction_count;type:int;default:0;comment:预言家次数"`
	PredictionPoints int       `gorm:"column:prediction_points;type:int;default:0;comment:竞猜累计积分"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime;comment:加入时间"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// Cosmetic 可解锁装扮
type Cosmetic struct {
	ID   uint64       `gorm:"column:id;primaryKey;autoIncrement"`
	Key  string       `gorm:"column:cosmetic_key;type:varchar(64);uniqueIndex;not null;comment:装扮唯一键"`
	Type CosmeticType `gorm:"column:type;type:varchar(32);not null;comment:装扮类型"`
	Name string       `gorm:"column:name;type:varchar(128)"`
}

// UserCosmetic 用户已解锁装扮，(user_id, cosmetic_key) 唯一
type UserCosmetic struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_cosmetic"`
	CosmeticKey string    `gorm:"column:cosmetic_key;type:varchar(64);not null;uniqueIndex:uk_user_cosmetic"`
	UnlockedAt  time.Time `gorm:"column:unlocked_at;autoCreateTime"`
}

func (User) TableName() string         { return "users" }
func (League) TableName() string       { return "leagues" }
func (LeagueMember) TableName() string { return "league_members" }
func (Cosmetic) TableName() string     { return "cosmetics" }
func (UserCosmetic) TableName() string { return "user_cosmetics" }

// AllModels 按依赖顺序返回所有需要迁移的表
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&League{},
		&LeagueMember{},
		&Match{},
		&MatchPlayer{},
		&Vote{},
		&Honor{},
		&Duel{},
		&PredictionGroup{},
		&PredictionQuestion{},
		&PredictionOption{},
		&UserPrediction{},
		&Achievement{},
		&UserAchievement{},
		&Cosmetic{},
		&UserCosmetic{},
	}
}
