package service

import "errors"

// 不可重试的查找失败
var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrQuestionNotFound = errors.New("prediction question not found")
)

// 结算失败（整个事务回滚）
var (
	ErrNoLeague       = errors.New("match has no league")
	ErrMatchCancelled = errors.New("match is cancelled")
)

// 校验失败，直接返回给用户
var (
	ErrQuestionClosed   = errors.New("prediction question is closed")
	ErrPredictionClosed = errors.New("prediction window is closed")
	ErrInvalidOption    = errors.New("option does not belong to question")
	ErrPickLimit        = errors.New("prediction pick limit reached for this group")
	ErrNotConvocated    = errors.New("user is not convocated for this match")
	ErrLeagueMismatch   = errors.New("match does not belong to league")
	ErrVotingClosed     = errors.New("match is not open for voting")
	ErrAlreadyVoted     = errors.New("voter has already voted for this match")
	ErrInvalidVote      = errors.New("invalid vote")
)

var validationErrors = []error{
	ErrQuestionClosed,
	ErrPredictionClosed,
	ErrInvalidOption,
	ErrPickLimit,
	ErrNotConvocated,
	ErrLeagueMismatch,
	ErrVotingClosed,
	ErrAlreadyVoted,
	ErrInvalidVote,
}

// IsValidation 是否为用户输入类错误（HTTP 400）
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound 是否为查找失败（HTTP 404）
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMatchNotFound) || errors.Is(err, ErrQuestionNotFound)
}
