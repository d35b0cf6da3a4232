package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"finCoach/internal/api/middleware"
	"finCoach/internal/database"
	"finCoach/internal/extract"
	"finCoach/internal/llm"
	"finCoach/internal/resolve"
)

// recordLocator 与 fileResolver 抽象出定位与取回两步，便于测试替换。
type recordLocator interface {
	Locate(ctx context.Context, requestedID string, ownerID uint) (*database.ResumeRecord, error)
}

type fileResolver interface {
	Resolve(ctx context.Context, record *database.ResumeRecord) (*resolve.Outcome, error)
}

type resumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, resumeText string, actx llm.AnalysisContext) (*llm.ResumeAnalysis, error)
}

// AnalyzeHandler 负责简历分析：定位记录、取回文件、抽取文本并调用 AI 评估。
type AnalyzeHandler struct {
	db       *gorm.DB
	locator  recordLocator
	resolver fileResolver
	analyzer resumeAnalyzer
	logger   *slog.Logger
}

// NewAnalyzeHandler 构造分析处理器。
func NewAnalyzeHandler(db *gorm.DB, locator recordLocator, resolver fileResolver, analyzer resumeAnalyzer, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		db:       db,
		locator:  locator,
		resolver: resolver,
		analyzer: analyzer,
		logger:   logger,
	}
}

type analyzeRequest struct {
	ResumeID        string `json:"resume_id" binding:"required"`
	JobRole         string `json:"job_role" binding:"max=128"`
	Industry        string `json:"industry" binding:"max=128"`
	ExperienceLevel string `json:"experience_level" binding:"max=64"`
}

// Analyze 执行一次完整的简历分析流程。
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("resume_id", req.ResumeID),
	)

	record, err := h.locator.Locate(ctx, req.ResumeID, userID)
	if err != nil {
		h.respondLocateError(c, logger, err)
		return
	}
	if record.ID != req.ResumeID {
		logger.Info("resume located via fuzzy match", slog.String("matched_id", record.ID))
	}

	outcome, err := h.resolver.Resolve(ctx, record)
	if err != nil {
		var unresolvable *resolve.UnresolvableError
		if errors.As(err, &unresolvable) {
			logger.Error("resume file unresolvable",
				slog.Any("attempts", unresolvable.Details()),
			)
			Internal(c, "resume file could not be retrieved")
			return
		}
		logger.Error("resolve resume file", slog.Any("error", err))
		Internal(c, "failed to retrieve resume file")
		return
	}

	logger.Info("resume file resolved",
		slog.String("method_used", outcome.MethodUsed),
		slog.Int("size_bytes", len(outcome.Bytes)),
	)

	text, err := extract.Text(outcome.Bytes, record.FileType)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			BadRequest(c, "unsupported resume file type")
			return
		}
		logger.Error("extract resume text", slog.Any("error", err))
		Internal(c, "failed to read resume content")
		return
	}

	analysis, err := h.analyzer.AnalyzeResume(ctx, text, llm.AnalysisContext{
		JobRole:         req.JobRole,
		Industry:        req.Industry,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		logger.Error("analyze resume via llm", slog.Any("error", err))
		Error(c, http.StatusBadGateway, "analysis service unavailable")
		return
	}

	// 分析结果落库失败不阻断响应。
	h.persistAnalysis(ctx, logger, record, req, analysis, outcome.MethodUsed)

	c.JSON(http.StatusOK, gin.H{
		"resume_id":   record.ID,
		"method_used": outcome.MethodUsed,
		"analysis":    analysis,
	})
}

func (h *AnalyzeHandler) persistAnalysis(
	ctx context.Context,
	logger *slog.Logger,
	record *database.ResumeRecord,
	req analyzeRequest,
	analysis *llm.ResumeAnalysis,
	methodUsed string,
) {
	resultJSON, err := json.Marshal(analysis)
	if err != nil {
		logger.Error("marshal analysis result", slog.Any("error", err))
		return
	}
	row := database.ResumeAnalysis{
		ResumeID:        record.ID,
		UserID:          record.UserID,
		JobRole:         req.JobRole,
		Industry:        req.Industry,
		ExperienceLevel: req.ExperienceLevel,
		OverallScore:    analysis.OverallScore,
		Result:          datatypes.JSON(resultJSON),
		MethodUsed:      methodUsed,
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("persist analysis result", slog.Any("error", err))
	}
}

// History 返回当前用户的历史分析结果。
func (h *AnalyzeHandler) History(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var rows []database.ResumeAnalysis
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&rows).Error; err != nil {
		h.loggerFromContext(c).Error("list analyses", slog.Any("error", err))
		Internal(c, "failed to list analyses")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		items = append(items, gin.H{
			"id":            row.ID,
			"resume_id":     row.ResumeID,
			"job_role":      row.JobRole,
			"industry":      row.Industry,
			"overall_score": row.OverallScore,
			"method_used":   row.MethodUsed,
			"result":        json.RawMessage(row.Result),
			"created_at":    row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AnalyzeHandler) respondLocateError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, resolve.ErrInvalidIdentifier):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, resolve.ErrRecordNotFound):
		NotFound(c, "resume not found")
	case errors.Is(err, resolve.ErrNotAuthorized):
		Forbidden(c, "access denied")
	case errors.Is(err, resolve.ErrDuplicateRecord):
		logger.Error("duplicate resume records", slog.Any("error", err))
		Internal(c, "duplicate resume records")
	default:
		logger.Error("locate resume", slog.Any("error", err))
		Internal(c, "failed to locate resume")
	}
}

func (h *AnalyzeHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
