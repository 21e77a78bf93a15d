package api

import (
	"net/http"
	"strconv"

	"LeagueSettle/internal/achievement"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AchievementHandler 成就查询与手动评估
type AchievementHandler struct {
	engine *achievement.Engine
	logger *logrus.Logger
}

func NewAchievementHandler(engine *achievement.Engine, logger *logrus.Logger) *AchievementHandler {
	return &AchievementHandler{engine: engine, logger: logger}
}

// List GET /api/users/:user_id/achievements
func (h *AchievementHandler) List(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	ledger, err := h.engine.Ledger(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("achievement ledger failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ledger})
}

// Evaluate POST /api/users/:user_id/achievements/evaluate?league_id=&match_id=
func (h *AchievementHandler) Evaluate(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	leagueID, _ := strconv.ParseUint(c.Query("league_id"), 10, 64)
	matchID, _ := strconv.ParseUint(c.Query("match_id"), 10, 64)

	unlocked, err := h.engine.Evaluate(c.Request.Context(), userID, leagueID, matchID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("achievement evaluation finished with errors")
	}
	codes := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		codes = append(codes, u.Achievement.Code)
	}
	resp := gin.H{"unlocked": codes}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
