package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"finCoach/internal/api/middleware"
	"finCoach/internal/database"
	"finCoach/internal/llm"
	"finCoach/internal/tasks"
)

// InterviewHandler 负责模拟面试会话的创建、查询与提交评分。
type InterviewHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewInterviewHandler 构造面试处理器。
func NewInterviewHandler(db *gorm.DB, asynqClient *asynq.Client, logger *slog.Logger) *InterviewHandler {
	return &InterviewHandler{
		db:          db,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

type interviewCreateRequest struct {
	JobRole         string `json:"job_role" binding:"required,max=128"`
	Industry        string `json:"industry" binding:"max=128"`
	ExperienceLevel string `json:"experience_level" binding:"max=64"`
}

// Create 开启一场新的模拟面试会话。
func (h *InterviewHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req interviewCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	session := database.InterviewSession{
		UserID:          userID,
		JobRole:         req.JobRole,
		Industry:        req.Industry,
		ExperienceLevel: req.ExperienceLevel,
		Status:          "pending",
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&session).Error; err != nil {
		h.loggerFromContext(c).Error("create interview session", slog.Any("error", err))
		Internal(c, "failed to create session")
		return
	}

	c.JSON(http.StatusCreated, interviewResponse(&session))
}

// Get 返回一场面试会话及其评分结果。
func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	session, ok := h.loadOwnedSession(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, interviewResponse(session))
}

// List 返回当前用户的面试会话列表。
func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var sessions []database.InterviewSession
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&sessions).Error; err != nil {
		h.loggerFromContext(c).Error("list interview sessions", slog.Any("error", err))
		Internal(c, "failed to list sessions")
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for i := range sessions {
		items = append(items, interviewResponse(&sessions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type interviewCompleteRequest struct {
	Transcript []llm.TranscriptTurn `json:"transcript" binding:"required,min=1,dive"`
}

// Complete 保存面试记录并异步触发评分。
func (h *InterviewHandler) Complete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req interviewCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	session, ok := h.loadOwnedSession(c, userID)
	if !ok {
		return
	}
	if session.Status == "processing" || session.Status == "completed" {
		Conflict(c, "session already submitted")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("session_id", uint64(session.ID)),
	)

	transcriptJSON, err := json.Marshal(req.Transcript)
	if err != nil {
		BadRequest(c, "invalid transcript")
		return
	}
	if err := h.db.WithContext(ctx).Model(session).Updates(map[string]any{
		"transcript": datatypes.JSON(transcriptJSON),
		"status":     "pending",
	}).Error; err != nil {
		logger.Error("save transcript", slog.Any("error", err))
		Internal(c, "failed to save transcript")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewInterviewScoreTask(session.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		logger.Error("enqueue interview scoring", slog.Any("error", err))
		Internal(c, "failed to enqueue scoring")
		return
	}

	logger.Info("interview scoring enqueued", slog.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "interview scoring request accepted",
		"task_id": info.ID,
	})
}

func (h *InterviewHandler) loadOwnedSession(c *gin.Context, userID uint) (*database.InterviewSession, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid session id")
		return nil, false
	}

	var session database.InterviewSession
	if err := h.db.WithContext(c.Request.Context()).First(&session, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "session not found")
			return nil, false
		}
		h.loggerFromContext(c).Error("query interview session", slog.Any("error", err))
		Internal(c, "failed to query session")
		return nil, false
	}
	if session.UserID != userID {
		Forbidden(c, "access denied")
		return nil, false
	}
	return &session, true
}

func interviewResponse(session *database.InterviewSession) gin.H {
	resp := gin.H{
		"id":               session.ID,
		"job_role":         session.JobRole,
		"industry":         session.Industry,
		"experience_level": session.ExperienceLevel,
		"status":           session.Status,
		"created_at":       session.CreatedAt,
	}
	if session.Status == "completed" {
		resp["overall_score"] = session.OverallScore
		resp["result"] = json.RawMessage(session.Result)
	}
	return resp
}

func (h *InterviewHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
