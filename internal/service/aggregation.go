package service

import (
	"math"
	"sort"

	"LeagueSettle/internal/model"
)

// NoGhostScore 无自评或无他评时的幽灵分，低于任何真实值
var NoGhostScore = math.Inf(-1)

// PlayerAggregate 单个被评球员的投票汇总
type PlayerAggregate struct {
	UserID     uint64
	Overall    float64
	Pace       *float64
	Technique  *float64
	Physical   *float64
	Shooting   *float64
	Defense    *float64
	GhostScore float64
}

// mean 只统计非空值
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

type voteBucket struct {
	overall   mean
	pace      mean
	technique mean
	physical  mean
	shooting  mean
	defense   mean
	self      *float64
	peers     mean
}

// AggregateVotes 按被评人归并投票。结果按 user id 升序，供评选时稳定地处理平局
func AggregateVotes(votes []*model.Vote) []*PlayerAggregate {
	buckets := make(map[uint64]*voteBucket)
	for _, v := range votes {
		b, ok := buckets[v.TargetID]
		if !ok {
			b = &voteBucket{}
			buckets[v.TargetID] = b
		}
		overall := v.Overall
		b.overall.add(&overall)
		b.pace.add(v.Pace)
		b.technique.add(v.Technique)
		b.physical.add(v.Physical)
		b.shooting.add(v.Shooting)
		b.defense.add(v.Defense)
		if v.VoterID == v.TargetID {
			b.self = &overall
		} else {
			b.peers.add(&overall)
		}
	}

	targets := make([]uint64, 0, len(buckets))
	for id := range buckets {
		targets = append(targets, id)
	}
	sortIDs(targets)

	out := make([]*PlayerAggregate, 0, len(targets))
	for _, id := range targets {
		b := buckets[id]
		agg := &PlayerAggregate{
			UserID:     id,
			Overall:    *b.overall.value(),
			Pace:       b.pace.value(),
			Technique:  b.technique.value(),
			Physical:   b.physical.value(),
			Shooting:   b.shooting.value(),
			Defense:    b.defense.value(),
			GhostScore: NoGhostScore,
		}
		if b.self != nil && b.peers.n > 0 {
			agg.GhostScore = *b.self - *b.peers.value()
		}
		out = append(out, agg)
	}
	return out
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Honors 一场比赛的三项评选结果，Ghost 可能为空
type Honors struct {
	Best  *PlayerAggregate
	Worst *PlayerAggregate
	Ghost *PlayerAggregate
}

// SelectHonors 按输入顺序做 argmax/argmin，平局取先出现者
func SelectHonors(aggs []*PlayerAggregate) Honors {
	var h Honors
	if len(aggs) == 0 {
		return h
	}
	best, worst, ghost := aggs[0], aggs[0], aggs[0]
	for _, a := range aggs[1:] {
		if a.Overall > best.Overall {
			best = a
		}
		if a.Overall < worst.Overall {
			worst = a
		}
		if a.GhostScore > ghost.GhostScore {
			ghost = a
		}
	}
	h.Best = best
	h.Worst = worst
	if ghost.GhostScore > 0 {
		h.Ghost = ghost
	}
	return h
}
