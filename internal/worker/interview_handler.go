package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"finCoach/internal/database"
	"finCoach/internal/errcode"
	"finCoach/internal/llm"
	"finCoach/internal/tasks"
)

// InterviewScoreHandler 负责消费面试评分任务。
type InterviewScoreHandler struct {
	db          *gorm.DB
	llmClient   *llm.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewInterviewScoreHandler 创建任务处理器。
func NewInterviewScoreHandler(db *gorm.DB, llmClient *llm.Client, redisClient *redis.Client, logger *slog.Logger) *InterviewScoreHandler {
	return &InterviewScoreHandler{
		db:          db,
		llmClient:   llmClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *InterviewScoreHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.InterviewScorePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("session_id", int(payload.SessionID)),
	)
	log.Info("Starting interview scoring task...")

	var session database.InterviewSession
	if err := h.db.WithContext(ctx).First(&session, payload.SessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("interview session not found, skipping task")
			return nil
		}
		log.Error("query interview session failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(session.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		if err := h.db.WithContext(ctx).Model(&session).Update("status", "failed").Error; err != nil {
			log.Error("mark session failed failed", slog.Any("error", err))
		}
		notify := InterviewScoreNotifyMessage{
			Status:        "error",
			SessionID:     session.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishInterviewScoreNotify(ctx, session.UserID, notify); err != nil {
			log.Error("publish interview error notification failed", slog.Any("error", err))
		}
	}()

	if err := h.db.WithContext(ctx).Model(&session).Update("status", "processing").Error; err != nil {
		log.Error("mark session processing failed", slog.Any("error", err))
		return err
	}

	var turns []llm.TranscriptTurn
	if len(session.Transcript) > 0 {
		if err := json.Unmarshal(session.Transcript, &turns); err != nil {
			log.Error("unmarshal transcript failed", slog.Any("error", err))
			return err
		}
	}
	if len(turns) == 0 {
		log.Warn("empty transcript, nothing to score")
		return fmt.Errorf("session %d has an empty transcript", session.ID)
	}

	score, err := h.llmClient.ScoreInterview(ctx, turns, llm.AnalysisContext{
		JobRole:         session.JobRole,
		Industry:        session.Industry,
		ExperienceLevel: session.ExperienceLevel,
	})
	if err != nil {
		log.Error("score interview via llm failed", slog.Any("error", err))
		return err
	}

	resultJSON, err := json.Marshal(score)
	if err != nil {
		log.Error("marshal score result failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"result":        datatypes.JSON(resultJSON),
		"overall_score": score.OverallScore,
		"status":        "completed",
	}
	if err := h.db.WithContext(ctx).Model(&session).Updates(update).Error; err != nil {
		log.Error("update interview session failed", slog.Any("error", err))
		return err
	}

	notify := InterviewScoreNotifyMessage{
		Status:        "completed",
		SessionID:     session.ID,
		CorrelationID: payload.CorrelationID,
		OverallScore:  score.OverallScore,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishInterviewScoreNotify(ctx, session.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Interview scoring task completed successfully.")
	return nil
}

func (h *InterviewScoreHandler) publishInterviewScoreNotify(ctx context.Context, userID uint, notify InterviewScoreNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
