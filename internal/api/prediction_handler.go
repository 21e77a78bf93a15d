package api

import (
	"net/http"

	"LeagueSettle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PredictionHandler 竞猜提交接口
type PredictionHandler struct {
	predictions *service.PredictionService
	logger      *logrus.Logger
}

func NewPredictionHandler(predictions *service.PredictionService, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, logger: logger}
}

type submitPredictionRequest struct {
	UserID     uint64 `json:"user_id" binding:"required"`
	QuestionID uint64 `json:"question_id" binding:"required"`
	OptionID   uint64 `json:"option_id" binding:"required"`
}

// Submit POST /api/predictions，校验失败返回 200 + {success:false, error}
func (h *PredictionHandler) Submit(c *gin.Context) {
	var req submitPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	err := h.predictions.SubmitPrediction(c.Request.Context(), req.UserID, req.QuestionID, req.OptionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case service.IsValidation(err) || service.IsNotFound(err):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
	default:
		h.logger.WithError(err).Error("SubmitPrediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}
