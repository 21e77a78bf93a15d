package testutil

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"LeagueSettle/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 内存 sqlite，单连接，已迁移全部表
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	return openDB(t, "file::memory:")
}

// NewFileDB 临时目录下的 sqlite 文件库，连接被驱动丢弃后数据仍在
func NewFileDB(t testing.TB) *gorm.DB {
	t.Helper()
	return openDB(t, filepath.Join(t.TempDir(), "league.db"))
}

func openDB(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Logger 丢弃输出的 logger
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// F64 取地址
func F64(v float64) *float64 { return &v }

// Int 取地址
func Int(v int) *int { return &v }

// U64 取地址
func U64(v uint64) *uint64 { return &v }

// Fixture 测试数据构造
type Fixture struct {
	t  testing.TB
	DB *gorm.DB
}

func NewFixture(t testing.TB, db *gorm.DB) *Fixture {
	return &Fixture{t: t, DB: db}
}

func (f *Fixture) create(v interface{}) {
	f.t.Helper()
	if err := f.DB.Create(v).Error; err != nil {
		f.t.Fatalf("create %T: %v", v, err)
	}
}

func (f *Fixture) User(id uint64, tier model.UserTier) *model.User {
	f.t.Helper()
	u := &model.User{ID: id, Nickname: "player", Tier: tier}
	f.create(u)
	return u
}

func (f *Fixture) League(id, ownerID uint64) *model.League {
	f.t.Helper()
	l := &model.League{ID: id, Name: "league", OwnerID: ownerID}
	f.create(l)
	return l
}

func (f *Fixture) Member(leagueID, userID uint64) *model.LeagueMember {
	f.t.Helper()
	m := &model.LeagueMember{LeagueID: leagueID, UserID: userID}
	f.create(m)
	return m
}

// Match 带比分的比赛；leagueID 为 0 表示无联赛
func (f *Fixture) Match(leagueID uint64, status model.MatchStatus, scheduledAt time.Time, scoreA, scoreB *int) *model.Match {
	f.t.Helper()
	m := &model.Match{
		OrganizerID: 1,
		Status:      status,
		ScheduledAt: scheduledAt.UTC(),
		ScoreA:      scoreA,
		ScoreB:      scoreB,
	}
	if leagueID != 0 {
		m.LeagueID = &leagueID
	}
	f.create(m)
	return m
}

func (f *Fixture) Player(matchID, userID uint64, team model.Team, confirmed bool) *model.MatchPlayer {
	f.t.Helper()
	p := &model.MatchPlayer{MatchID: matchID, UserID: userID, Team: team, Confirmed: confirmed}
	f.create(p)
	return p
}

// RatedPlayer 已结算比赛中的球员（带综合评分）
func (f *Fixture) RatedPlayer(matchID, userID uint64, team model.Team, overall float64) *model.MatchPlayer {
	f.t.Helper()
	p := &model.MatchPlayer{MatchID: matchID, UserID: userID, Team: team, Confirmed: true, Overall: &overall}
	f.create(p)
	return p
}

func (f *Fixture) Vote(matchID, voterID, targetID uint64, overall float64) *model.Vote {
	f.t.Helper()
	v := &model.Vote{MatchID: matchID, VoterID: voterID, TargetID: targetID, Overall: overall}
	f.create(v)
	return v
}

func (f *Fixture) Honor(matchID, userID, leagueID uint64, typ model.HonorType) *model.Honor {
	f.t.Helper()
	h := &model.Honor{MatchID: matchID, UserID: userID, LeagueID: leagueID, Type: typ}
	f.create(h)
	return h
}

// Question 创建题目及选项，返回题目与 选项键 → 选项
func (f *Fixture) Question(groupID uint64, key string, points int, optionKeys ...string) (*model.PredictionQuestion, map[string]*model.PredictionOption) {
	f.t.Helper()
	q := &model.PredictionQuestion{GroupID: groupID, Key: key, Title: key, Points: points}
	f.create(q)
	opts := make(map[string]*model.PredictionOption, len(optionKeys))
	for _, k := range optionKeys {
		o := &model.PredictionOption{QuestionID: q.ID, Key: k, Label: k}
		f.create(o)
		opts[k] = o
	}
	return q, opts
}

func (f *Fixture) MatchGroup(leagueID, matchID uint64, closesAt *time.Time) *model.PredictionGroup {
	f.t.Helper()
	g := &model.PredictionGroup{
		LeagueID: leagueID,
		MatchID:  &matchID,
		Type:     model.GroupPerMatch,
		Status:   model.GroupOpen,
		ClosesAt: closesAt,
	}
	f.create(g)
	return g
}

func (f *Fixture) Pick(userID uint64, q *model.PredictionQuestion, o *model.PredictionOption) {
	f.t.Helper()
	f.create(&model.UserPrediction{UserID: userID, QuestionID: q.ID, GroupID: q.GroupID, OptionID: o.ID})
}

func (f *Fixture) Achievement(code, condition string, target float64, sortOrder int) *model.Achievement {
	f.t.Helper()
	a := &model.Achievement{
		Code:          code,
		Name:          code,
		ConditionType: condition,
		Target:        target,
		RewardType:    model.RewardNone,
		SortOrder:     sortOrder,
	}
	f.create(a)
	return a
}
