package service

import (
	"context"
	"errors"
	"testing"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/testutil"
)

func newVoteEnv(t *testing.T) (*settlementEnv, *VoteService, *model.Match) {
	t.Helper()
	env := newSettlementEnv(t)
	env.seedLeague(3)
	m := env.fx.Match(1, model.MatchFinished, env.matchAt, testutil.Int(2), testutil.Int(1))
	env.fx.Player(m.ID, 1, model.TeamA, true)
	env.fx.Player(m.ID, 2, model.TeamB, true)
	env.fx.Player(m.ID, 3, model.TeamB, false)
	return env, NewVoteService(env.store, env.settle, testutil.Logger()), m
}

func TestSubmitVotes_Validation(t *testing.T) {
	env, svc, m := newVoteEnv(t)
	ctx := context.Background()
	cancelled := env.fx.Match(1, model.MatchCancelled, env.matchAt, nil, nil)

	ok := []VoteInput{{TargetID: 2, Overall: 7}}
	tests := []struct {
		name     string
		matchID  uint64
		leagueID uint64
		voterID  uint64
		votes    []VoteInput
		want     error
	}{
		{"empty", m.ID, 1, 1, nil, ErrInvalidVote},
		{"missing match", 999, 1, 1, ok, ErrMatchNotFound},
		{"wrong league", m.ID, 2, 1, ok, ErrLeagueMismatch},
		{"cancelled match", cancelled.ID, 1, 1, ok, ErrVotingClosed},
		{"not confirmed", m.ID, 1, 3, ok, ErrNotConvocated},
		{"outsider", m.ID, 1, 9, ok, ErrNotConvocated},
		{"target not in roster", m.ID, 1, 1, []VoteInput{{TargetID: 7, Overall: 7}}, ErrInvalidVote},
		{"duplicate target", m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 7}, {TargetID: 2, Overall: 6}}, ErrInvalidVote},
		{"overall too high", m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 10.5}}, ErrInvalidVote},
		{"overall too low", m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 0}}, ErrInvalidVote},
		{"skill out of range", m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 7, Pace: testutil.F64(11)}}, ErrInvalidVote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitVotes(ctx, tt.matchID, tt.leagueID, tt.voterID, tt.votes)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	votes, _ := env.store.Votes.ListByMatch(ctx, m.ID)
	if len(votes) != 0 {
		t.Fatalf("rejected submissions stored %d votes", len(votes))
	}
}

func TestSubmitVotes_SelfVoteDropsSkills(t *testing.T) {
	env, svc, m := newVoteEnv(t)
	ctx := context.Background()

	res, err := svc.SubmitVotes(ctx, m.ID, 1, 1, []VoteInput{
		{TargetID: 1, Overall: 9, Pace: testutil.F64(9), Defense: testutil.F64(9)},
		{TargetID: 2, Overall: 6, Pace: testutil.F64(7)},
	})
	if err != nil {
		t.Fatalf("SubmitVotes: %v", err)
	}
	if res.MatchClosed {
		t.Fatalf("match closed before every confirmed player voted")
	}

	votes, _ := env.store.Votes.ListByMatch(ctx, m.ID)
	if len(votes) != 2 {
		t.Fatalf("stored %d votes, want 2", len(votes))
	}
	for _, v := range votes {
		switch v.TargetID {
		case 1:
			if v.Pace != nil || v.Defense != nil {
				t.Errorf("self vote kept skills: %+v", v)
			}
		case 2:
			if v.Pace == nil || *v.Pace != 7 {
				t.Errorf("peer vote lost pace: %+v", v)
			}
		}
	}

	if _, err := svc.SubmitVotes(ctx, m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 5}}); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second submission err = %v, want ErrAlreadyVoted", err)
	}
}

func TestSubmitVotes_FinalVoteSettlesMatch(t *testing.T) {
	env, svc, m := newVoteEnv(t)
	ctx := context.Background()

	if res, err := svc.SubmitVotes(ctx, m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 6}}); err != nil || res.MatchClosed {
		t.Fatalf("first voter: res=%+v err=%v", res, err)
	}
	res, err := svc.SubmitVotes(ctx, m.ID, 1, 2, []VoteInput{{TargetID: 1, Overall: 8}})
	if err != nil {
		t.Fatalf("final voter: %v", err)
	}
	if !res.MatchClosed {
		t.Fatalf("final vote did not close the match")
	}
	got, _ := env.store.Matches.GetByID(ctx, m.ID)
	if got.Status != model.MatchCompleted || got.MVPUserID == nil || *got.MVPUserID != 1 {
		t.Fatalf("match after final vote: %+v", got)
	}

	// 结算后不再接受投票
	if _, err := svc.SubmitVotes(ctx, m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 6}}); !errors.Is(err, ErrVotingClosed) {
		t.Fatalf("vote after settlement err = %v, want ErrVotingClosed", err)
	}
	env.hooks.Wait()
}

func TestSubmitVotes_LocksMatchAndRejectsAfterSettlement(t *testing.T) {
	env, svc, m := newVoteEnv(t)
	ctx := context.Background()
	locks := lockedReads(t, env.db)

	if _, err := svc.SubmitVotes(ctx, m.ID, 1, 1, []VoteInput{{TargetID: 2, Overall: 6}}); err != nil {
		t.Fatalf("first voter: %v", err)
	}
	if n := locks("matches"); n != 1 {
		t.Fatalf("vote transaction locked the match %d times, want 1", n)
	}

	// 补偿任务或手动结算抢在最后一位投票者之前
	if status, err := env.settle.Settle(ctx, m.ID); err != nil || status != SettleDone {
		t.Fatalf("Settle = %s, %v", status, err)
	}
	if _, err := svc.SubmitVotes(ctx, m.ID, 1, 2, []VoteInput{{TargetID: 1, Overall: 8}}); !errors.Is(err, ErrVotingClosed) {
		t.Fatalf("late vote err = %v, want ErrVotingClosed", err)
	}
	votes, _ := env.store.Votes.ListByMatch(ctx, m.ID)
	if len(votes) != 1 {
		t.Fatalf("stored %d votes, want only the one aggregated", len(votes))
	}
	env.hooks.Wait()
}
