package api

import (
	"net/http"
	"strconv"

	"LeagueSettle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MatchHandler 赛后投票与结算接口
type MatchHandler struct {
	votes      *service.VoteService
	settlement *service.SettlementService
	logger     *logrus.Logger
}

func NewMatchHandler(votes *service.VoteService, settlement *service.SettlementService, logger *logrus.Logger) *MatchHandler {
	return &MatchHandler{votes: votes, settlement: settlement, logger: logger}
}

type submitVotesRequest struct {
	LeagueID uint64              `json:"league_id" binding:"required"`
	VoterID  uint64              `json:"voter_id" binding:"required"`
	Votes    []service.VoteInput `json:"votes" binding:"required"`
}

// SubmitVotes POST /api/matches/:match_id/votes
func (h *MatchHandler) SubmitVotes(c *gin.Context) {
	matchID, ok := parseID(c, "match_id")
	if !ok {
		return
	}
	var req submitVotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.votes.SubmitVotes(c.Request.Context(), matchID, req.LeagueID, req.VoterID, req.Votes)
	if err != nil {
		h.respondError(c, err, "SubmitVotes failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Settle POST /api/matches/:match_id/settle 手动结算/重试
func (h *MatchHandler) Settle(c *gin.Context) {
	matchID, ok := parseID(c, "match_id")
	if !ok {
		return
	}
	status, err := h.settlement.Settle(c.Request.Context(), matchID)
	if err != nil {
		h.respondError(c, err, "Settle failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settled": true, "status": status})
}

func (h *MatchHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}
