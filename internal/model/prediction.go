package model

import (
	"time"
)

// PredictionGroupType 竞猜组作用域
type PredictionGroupType string

const (
	GroupPerMatch PredictionGroupType = "MATCH"
	GroupPeriod   PredictionGroupType = "PERIOD"
)

// PredictionGroupStatus 竞猜组状态
type PredictionGroupStatus string

const (
	GroupOpen    PredictionGroupStatus = "OPEN"
	GroupClosed  PredictionGroupStatus = "CLOSED"
	GroupSettled PredictionGroupStatus = "SETTLED"
)

// PredictionGroup 竞猜组：绑定一场比赛（MATCH）或一个周期（PERIOD）
type PredictionGroup struct {
	ID        uint64                `gorm:"column:id;primaryKey;autoIncrement"`
	LeagueID  uint64                `gorm:"column:league_id;type:bigint;not null;index"`
	MatchID   *uint64               `gorm:"column:match_id;type:bigint;index;comment:MATCH 类型时必填"`
	Type      PredictionGroupType   `gorm:"column:type;type:varchar(16);not null"`
	Status    PredictionGroupStatus `gorm:"column:status;type:varchar(16);default:OPEN"`
	ClosesAt  *time.Time            `gorm:"column:closes_at;comment:截止时间"`
	SettledAt *time.Time            `gorm:"column:settled_at"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// PredictionQuestion 竞猜题。Key 为规范化键：静态键（如 MVP）或 PREFIX|userId 组合键
type PredictionQuestion struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	GroupID         uint64    `gorm:"column:group_id;type:bigint;not null;index"`
	Key             string    `gorm:"column:question_key;type:varchar(64);not null"`
	Title           string    `gorm:"column:title;type:varchar(256)"`
	Points          int       `gorm:"column:points;type:int;not null;default:1;comment:答对得分"`
	IsClosed        bool      `gorm:"column:is_closed;type:boolean;default:false"`
	CorrectOptionID *uint64   `gorm:"column:correct_option_id;type:bigint;comment:结算后写入"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// PredictionOption 选项，Key 与事实表的值比对
type PredictionOption struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	QuestionID uint64 `gorm:"column:question_id;type:bigint;not null;index"`
	Key        string `gorm:"column:option_key;type:varchar(64);not null"`
	Label      string `gorm:"column:label;type:varchar(128)"`
}

// UserPrediction 用户对某题的选择，组关闭前可修改
type UserPrediction struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_question"`
	QuestionID uint64    `gorm:"column:question_id;type:bigint;not null;uniqueIndex:uk_user_question"`
	GroupID    uint64    `gorm:"column:group_id;type:bigint;not null;index"`
	OptionID   uint64    `gorm:"column:option_id;type:bigint;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PredictionGroup) TableName() string    { return "prediction_groups" }
func (PredictionQuestion) TableName() string { return "prediction_questions" }
func (PredictionOption) TableName() string   { return "prediction_options" }
func (UserPrediction) TableName() string     { return "user_predictions" }
