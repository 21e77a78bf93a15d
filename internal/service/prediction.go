package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LeagueSettle/internal/model"
	"LeagueSettle/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PredictionService 用户竞猜提交
type PredictionService struct {
	store     *repository.Store
	pickLimit int
	logger    *logrus.Logger
	now       func() time.Time
}

func NewPredictionService(store *repository.Store, pickLimit int, logger *logrus.Logger) *PredictionService {
	if pickLimit <= 0 {
		pickLimit = 5
	}
	return &PredictionService{
		store:     store,
		pickLimit: pickLimit,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitPrediction 选择或改选某题选项。改选不占用组内名额
func (s *PredictionService) SubmitPrediction(ctx context.Context, userID, questionID, optionID uint64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		q, err := tx.Predictions.GetQuestion(ctx, questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("load question: %w", err)
		}
		if q.IsClosed {
			return ErrQuestionClosed
		}

		// 组行锁串行化同组的名额计数，也与竞猜结算互斥
		g, err := tx.Predictions.GetGroupForUpdate(ctx, q.GroupID)
		if err != nil {
			return fmt.Errorf("load group: %w", err)
		}
		if g.Status != model.GroupOpen || (g.ClosesAt != nil && !s.now().Before(*g.ClosesAt)) {
			return ErrPredictionClosed
		}

		opt, err := tx.Predictions.GetOption(ctx, optionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOption
			}
			return fmt.Errorf("load option: %w", err)
		}
		if opt.QuestionID != questionID {
			return ErrInvalidOption
		}

		if g.Type == model.GroupPerMatch && g.MatchID != nil {
			if _, err := tx.Matches.GetPlayer(ctx, *g.MatchID, userID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotConvocated
				}
				return fmt.Errorf("load convocation: %w", err)
			}
		}

		_, err = tx.Predictions.GetUserPrediction(ctx, userID, questionID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			picks, err := tx.Predictions.CountUserPicks(ctx, userID, g.ID)
			if err != nil {
				return fmt.Errorf("count picks: %w", err)
			}
			if picks >= int64(s.pickLimit) {
				return ErrPickLimit
			}
		case err != nil:
			return fmt.Errorf("load existing pick: %w", err)
		}

		return tx.Predictions.UpsertUserPrediction(ctx, &model.UserPrediction{
			UserID:     userID,
			QuestionID: questionID,
			GroupID:    g.ID,
			OptionID:   optionID,
		})
	})
}
