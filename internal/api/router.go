package api

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Handlers 全部 HTTP 处理器
type Handlers struct {
	Match       *MatchHandler
	Prediction  *PredictionHandler
	Achievement *AchievementHandler
}

// RegisterRoutes 注册业务路由与 pprof
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	pprof.Register(r)

	g := r.Group("/api")
	g.POST("/matches/:match_id/votes", h.Match.SubmitVotes)
	g.POST("/matches/:match_id/settle", h.Match.Settle)
	g.POST("/predictions", h.Prediction.Submit)
	g.GET("/users/:user_id/achievements", h.Achievement.List)
	g.POST("/users/:user_id/achievements/evaluate", h.Achievement.Evaluate)
}
