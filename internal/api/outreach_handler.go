package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finCoach/internal/api/middleware"
	"finCoach/internal/database"
	"finCoach/internal/llm"
)

type outreachGenerator interface {
	GenerateOutreach(ctx context.Context, req llm.OutreachRequest) (string, error)
}

// OutreachHandler 负责生成与查询职场外联消息。
type OutreachHandler struct {
	db        *gorm.DB
	generator outreachGenerator
	logger    *slog.Logger
}

// NewOutreachHandler 构造外联消息处理器。
func NewOutreachHandler(db *gorm.DB, generator outreachGenerator, logger *slog.Logger) *OutreachHandler {
	return &OutreachHandler{
		db:        db,
		generator: generator,
		logger:    logger,
	}
}

type outreachCreateRequest struct {
	Company     string `json:"company" binding:"required,max=255"`
	ContactName string `json:"contact_name" binding:"max=255"`
	TargetRole  string `json:"target_role" binding:"required,max=128"`
	Purpose     string `json:"purpose" binding:"required,oneof=networking referral informational_interview follow_up"`
	Background  string `json:"background" binding:"max=2000"`
}

// Create 生成一条外联消息并落库。
func (h *OutreachHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req outreachCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("company", req.Company),
	)

	message, err := h.generator.GenerateOutreach(ctx, llm.OutreachRequest{
		Company:     req.Company,
		ContactName: req.ContactName,
		TargetRole:  req.TargetRole,
		Purpose:     req.Purpose,
		Background:  req.Background,
	})
	if err != nil {
		logger.Error("generate outreach via llm", slog.Any("error", err))
		Error(c, http.StatusBadGateway, "generation service unavailable")
		return
	}

	row := database.OutreachMessage{
		UserID:      userID,
		Company:     req.Company,
		ContactName: req.ContactName,
		TargetRole:  req.TargetRole,
		Purpose:     req.Purpose,
		Message:     message,
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("persist outreach message", slog.Any("error", err))
		Internal(c, "failed to save message")
		return
	}

	logger.Info("outreach message generated", slog.Uint64("message_id", uint64(row.ID)))
	c.JSON(http.StatusCreated, outreachResponse(&row))
}

// List 返回当前用户生成过的外联消息。
func (h *OutreachHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var rows []database.OutreachMessage
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&rows).Error; err != nil {
		h.loggerFromContext(c).Error("list outreach messages", slog.Any("error", err))
		Internal(c, "failed to list messages")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		items = append(items, outreachResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func outreachResponse(row *database.OutreachMessage) gin.H {
	return gin.H{
		"id":           row.ID,
		"company":      row.Company,
		"contact_name": row.ContactName,
		"target_role":  row.TargetRole,
		"purpose":      row.Purpose,
		"message":      row.Message,
		"created_at":   row.CreatedAt,
	}
}

func (h *OutreachHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
