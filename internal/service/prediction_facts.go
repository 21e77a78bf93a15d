package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"LeagueSettle/internal/model"
)

// 静态题目键
const (
	KeyMVP            = "MVP"
	KeyTronco         = "TRONCO"
	KeyFantasma       = "FANTASMA"
	KeyDuelWinner     = "DUEL_WINNER"
	KeyResult         = "RESULT"
	KeyTotalGoalsOver = "TOTAL_GOALS_OVER"
	KeyCleanSheet     = "CLEAN_SHEET"
	KeyAttendance     = "ATTENDANCE"
	KeyAvgRatingOver7 = "AVG_RATING_OVER_7"
	KeyAnyRatingOver8 = "ANY_RATING_OVER_8"
	KeyMVPOver8       = "MVP_OVER_8"
	KeyDuelDraw       = "DUEL_DRAW"
	KeyAvgTechnique   = "AVG_TECHNIQUE"
)

// 按球员参数化的题目前缀，完整键为 PREFIX|userId
const (
	PrefixRatingOver7 = "RATING_OVER_7"
	PrefixExactRating = "EXACT_RATING"
)

const (
	factYes  = "YES"
	factNo   = "NO"
	factDraw = "DRAW"

	totalGoalsThreshold = 5
)

// QuestionKey 题目规范化键：StaticQuestion 或 PerPlayerQuestion
type QuestionKey interface {
	String() string
	questionKey()
}

// StaticQuestion 与比赛整体事实比对的题目
type StaticQuestion struct {
	Key string
}

func (q StaticQuestion) String() string { return q.Key }
func (StaticQuestion) questionKey()     {}

// PerPlayerQuestion 与某个球员最终评分比对的题目
type PerPlayerQuestion struct {
	Prefix string
	UserID uint64
}

func (q PerPlayerQuestion) String() string { return fmt.Sprintf("%s|%d", q.Prefix, q.UserID) }
func (PerPlayerQuestion) questionKey()     {}

// ParseQuestionKey 解析存储的题目键
func ParseQuestionKey(raw string) (QuestionKey, error) {
	prefix, id, ok := strings.Cut(raw, "|")
	if !ok {
		if raw == "" {
			return nil, fmt.Errorf("empty question key")
		}
		return StaticQuestion{Key: raw}, nil
	}
	switch prefix {
	case PrefixRatingOver7, PrefixExactRating:
	default:
		return nil, fmt.Errorf("unknown per-player question prefix %q", prefix)
	}
	userID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in question key %q: %w", raw, err)
	}
	return PerPlayerQuestion{Prefix: prefix, UserID: userID}, nil
}

// MatchState 推导事实表所需的已提交比赛状态
type MatchState struct {
	Match  *model.Match
	Roster []*model.MatchPlayer
	Honors []*model.Honor
	Duels  []*model.Duel
}

// FactSheet 比赛事实表。无法推导的事实不存在，对应题目无正确选项
type FactSheet struct {
	static  map[string]string
	ratings map[uint64]float64
}

// Resolve 返回题目对应的事实值
func (f *FactSheet) Resolve(key QuestionKey) (string, bool) {
	switch k := key.(type) {
	case StaticQuestion:
		v, ok := f.static[k.Key]
		return v, ok
	case PerPlayerQuestion:
		rating, ok := f.ratings[k.UserID]
		if !ok {
			return "", false
		}
		switch k.Prefix {
		case PrefixRatingOver7:
			return yesNo(rating > 7), true
		case PrefixExactRating:
			return formatExactRating(rating), true
		}
	}
	return "", false
}

// BuildFactSheet 仅依据已写入的比赛状态推导事实
func BuildFactSheet(st MatchState) *FactSheet {
	f := &FactSheet{
		static:  make(map[string]string),
		ratings: make(map[uint64]float64),
	}
	m := st.Match

	for _, h := range st.Honors {
		uid := strconv.FormatUint(h.UserID, 10)
		switch h.Type {
		case model.HonorMVP:
			f.static[KeyMVP] = uid
		case model.HonorTronco:
			f.static[KeyTronco] = uid
		case model.HonorFantasma:
			f.static[KeyFantasma] = uid
		}
	}

	if len(st.Duels) > 0 {
		d := st.Duels[0]
		if d.WinnerID != nil {
			f.static[KeyDuelWinner] = strconv.FormatUint(*d.WinnerID, 10)
			f.static[KeyDuelDraw] = factNo
		} else if d.Status == model.DuelResolved {
			f.static[KeyDuelWinner] = factDraw
			f.static[KeyDuelDraw] = factYes
		}
	}

	if r := m.Result(); r != "" {
		f.static[KeyResult] = r
		total := *m.ScoreA + *m.ScoreB
		f.static[KeyTotalGoalsOver] = yesNo(total > totalGoalsThreshold)
		f.static[KeyCleanSheet] = yesNo(*m.ScoreA == 0 || *m.ScoreB == 0)
	}

	confirmed := 0
	var overall, technique mean
	anyOver8 := false
	for _, p := range st.Roster {
		if p.Confirmed {
			confirmed++
		}
		if p.Overall != nil {
			f.ratings[p.UserID] = *p.Overall
			overall.add(p.Overall)
			if *p.Overall > 8 {
				anyOver8 = true
			}
		}
		technique.add(p.Technique)
	}
	f.static[KeyAttendance] = attendanceBucket(confirmed)
	if avg := overall.value(); avg != nil {
		f.static[KeyAvgRatingOver7] = yesNo(*avg > 7)
		f.static[KeyAnyRatingOver8] = yesNo(anyOver8)
	}
	if avg := technique.value(); avg != nil {
		f.static[KeyAvgTechnique] = techniqueBucket(*avg)
	}
	if m.MVPUserID != nil {
		if rating, ok := f.ratings[*m.MVPUserID]; ok {
			f.static[KeyMVPOver8] = yesNo(rating > 8)
		}
	}
	return f
}

func yesNo(b bool) string {
	if b {
		return factYes
	}
	return factNo
}

func attendanceBucket(n int) string {
	switch {
	case n <= 10:
		return "LE_10"
	case n <= 14:
		return "11_14"
	default:
		return "15_PLUS"
	}
}

func techniqueBucket(avg float64) string {
	switch {
	case avg < 6:
		return "LT_6"
	case avg < 7:
		return "6_7"
	case avg < 8:
		return "7_8"
	default:
		return "GE_8"
	}
}

// formatExactRating 取最近的 0.5 档并截断到 [0,10]
func formatExactRating(rating float64) string {
	r := math.Round(rating*2) / 2
	r = math.Max(0, math.Min(10, r))
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// QuestionSet 一道题及其选项、用户选择
type QuestionSet struct {
	Question *model.PredictionQuestion
	Key      QuestionKey
	Options  []*model.PredictionOption
	Picks    []*model.UserPrediction
}

// ScoreResult 判分结果
type ScoreResult struct {
	// CorrectOption 题目 id → 正确选项 id（无法判定时为 nil）
	CorrectOption map[uint64]*uint64
	// Points 每个作答用户的本场得分（含 0 分）
	Points map[uint64]int
}

// ScorePredictions 按事实表为每道题找正确选项并给选中者累计分值
func ScorePredictions(facts *FactSheet, sets []*QuestionSet) *ScoreResult {
	res := &ScoreResult{
		CorrectOption: make(map[uint64]*uint64, len(sets)),
		Points:        make(map[uint64]int),
	}
	for _, qs := range sets {
		var correct *uint64
		if value, ok := facts.Resolve(qs.Key); ok {
			for _, o := range qs.Options {
				if o.Key == value {
					id := o.ID
					correct = &id
					break
				}
			}
		}
		res.CorrectOption[qs.Question.ID] = correct
		for _, p := range qs.Picks {
			if _, ok := res.Points[p.UserID]; !ok {
				res.Points[p.UserID] = 0
			}
			if correct != nil && p.OptionID == *correct {
				res.Points[p.UserID] += qs.Question.Points
			}
		}
	}
	return res
}

// TopScorers 得分 ≥1 的最高分用户（全部并列者），按 user id 升序
func TopScorers(points map[uint64]int) []uint64 {
	best := 0
	for _, p := range points {
		if p > best {
			best = p
		}
	}
	if best == 0 {
		return nil
	}
	var winners []uint64
	for uid, p := range points {
		if p == best {
			winners = append(winners, uid)
		}
	}
	sortIDs(winners)
	return winners
}
