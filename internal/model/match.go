package model

import (
	"time"
)

// MatchStatus 比赛状态。COMPLETED 为终态；CANCELLED 为独立终态
type MatchStatus string

const (
	MatchOpen      MatchStatus = "OPEN"
	MatchActive    MatchStatus = "ACTIVE"
	MatchFinished  MatchStatus = "FINISHED"
	MatchCompleted MatchStatus = "COMPLETED"
	MatchCancelled MatchStatus = "CANCELLED"
)

// Team 分队
type Team string

const (
	TeamA          Team = "A"
	TeamB          Team = "B"
	TeamUnassigned Team = ""
)

// HonorType 荣誉类型
type HonorType string

const (
	HonorMVP      HonorType = "MVP"
	HonorTronco   HonorType = "TRONCO"
	HonorFantasma HonorType = "FANTASMA"
	HonorOracle   HonorType = "ORACLE"
)

type Match struct {
	ID          uint64      `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	LeagueID    *uint64     `gorm:"column:league_id;type:bigint;index;comment:所属联赛"`
	OrganizerID uint64      `gorm:"column:organizer_id;type:bigint;index;comment:组织者"`
	Status      MatchStatus `gorm:"column:status;type:varchar(16);default:OPEN;index;comment:状态"`
	ScheduledAt time.Time   `gorm:"column:scheduled_at;not null;comment:比赛时间"`
	ScoreA      *int        `gorm:"column:score_a;type:int;comment:A队进球"`
	ScoreB      *int        `gorm:"column:score_b;type:int;comment:B队进球"`
	MVPUserID   *uint64     `gorm:"column:mvp_user_id;type:bigint;comment:结算时写入的MVP"`
	CompletedAt *time.Time  `gorm:"column:completed_at;comment:结算时间"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// Result 按比分返回 A/B/DRAW，比分缺失返回空串
func (m *Match) Result() string {
	if m.ScoreA == nil || m.ScoreB == nil {
		return ""
	}
	switch {
	case *m.ScoreA > *m.ScoreB:
		return string(TeamA)
	case *m.ScoreA < *m.ScoreB:
		return string(TeamB)
	default:
		return "DRAW"
	}
}

// MatchPlayer 比赛召集名单，评分字段在结算前为空
type MatchPlayer struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	MatchID          uint64    `gorm:"column:match_id;type:bigint;not null;uniqueIndex:uk_match_user;comment:比赛ID"`
	UserID           uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_match_user;index;comment:用户ID"`
	Team             Team      `gorm:"column:team;type:varchar(4);comment:分队 A/B/空"`
	Confirmed        bool      `gorm:"column:confirmed;type:boolean;default:false;comment:是否确认出席"`
	Overall          *float64  `gorm:"column:overall;type:numeric(5,3);comment:综合评分"`
	Pace             *float64  `gorm:"column:pace;type:numeric(5,3)"`
	Technique        *float64  `gorm:"column:technique;type:numeric(5,3)"`
	Physical         *float64  `gorm:"column:physical;type:numeric(5,3)"`
	Shooting         *float64  `gorm:"column:shooting;type:numeric(5,3)"`
	Defense          *float64  `gorm:"column:defense;type:numeric(5,3)"`
	PredictionPoints int       `gorm:"column:prediction_points;type:int;default:0;comment:本场竞猜积分"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Vote 赛后互评，写入后不可变。自评只保留综合分
type Vote struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"column:match_id;type:bigint;not null;uniqueIndex:uk_vote;comment:比赛ID"`
	VoterID   uint64    `gorm:"column:voter_id;type:bigint;not null;uniqueIndex:uk_vote;index;comment:投票人"`
	TargetID  uint64    `gorm:"column:target_id;type:bigint;not null;uniqueIndex:uk_vote;comment:被评人"`
	Overall   float64   `gorm:"column:overall;type:numeric(4,2);not null"`
	Pace      *float64  `gorm:"column:pace;type:numeric(4,2)"`
	Technique *float64  `gorm:"column:technique;type:numeric(4,2)"`
	Physical  *float64  `gorm:"column:physical;type:numeric(4,2)"`
	Shooting  *float64  `gorm:"column:shooting;type:numeric(4,2)"`
	Defense   *float64  `gorm:"column:defense;type:numeric(4,2)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Honor 荣誉事实表，只追加
type Honor struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"column:match_id;type:bigint;not null;index"`
	UserID    uint64    `gorm:"column:user_id;type:bigint;not null;index"`
	LeagueID  uint64    `gorm:"column:league_id;type:bigint;not null"`
	Type      HonorType `gorm:"column:type;type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// DuelStatus 一对一对决状态
type DuelStatus string

const (
	DuelPending  DuelStatus = "PENDING"
	DuelResolved DuelStatus = "RESOLVED"
)

// Duel 比赛内的一对一对决，WinnerID 为空且已结算表示平局
type Duel struct {
	ID           uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	MatchID      uint64     `gorm:"column:match_id;type:bigint;not null;index"`
	ChallengerID uint64     `gorm:"column:challenger_id;type:bigint;not null"`
	ChallengedID uint64     `gorm:"column:challenged_id;type:bigint;not null"`
	WinnerID     *uint64    `gorm:"column:winner_id;type:bigint"`
	Status       DuelStatus `gorm:"column:status;type:varchar(16);default:PENDING"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Match) TableName() string       { return "matches" }
func (MatchPlayer) TableName() string { return "match_players" }
func (Vote) TableName() string        { return "votes" }
func (Honor) TableName() string       { return "honors" }
func (Duel) TableName() string        { return "duels" }
