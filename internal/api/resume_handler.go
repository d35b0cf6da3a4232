package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finCoach/internal/api/middleware"
	"finCoach/internal/database"
	"finCoach/internal/resolve"
	"finCoach/internal/storage"
)

const presignedURLTTL = 7 * 24 * time.Hour

// ResumeHandler 负责简历文件的上传、查询与删除。
type ResumeHandler struct {
	db             *gorm.DB
	storage        *storage.Client
	locator        *resolve.Locator
	logger         *slog.Logger
	maxUploadBytes int64
	clamdAddr      string
}

// NewResumeHandler 构造简历处理器。
func NewResumeHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, maxUploadBytes int64, clamdAddr string) *ResumeHandler {
	return &ResumeHandler{
		db:             db,
		storage:        storageClient,
		locator:        resolve.NewLocator(db),
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		clamdAddr:      clamdAddr,
	}
}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": docxContentType,
	".txt":  "text/plain",
}

// resolveContentType 优先信任请求头，缺失时按扩展名判断。
func resolveContentType(header, fileName string) (string, bool) {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	switch declared {
	case "application/pdf", docxContentType, "text/plain":
		return declared, true
	}
	if t, ok := extensionTypes[strings.ToLower(path.Ext(fileName))]; ok {
		return t, true
	}
	return "", false
}

func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
}

// Upload 处理简历文件上传：扫描病毒、写入对象存储并落库。
func (h *ResumeHandler) Upload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 {
		BadRequest(c, "empty file")
		return
	}
	if file.Size > h.maxUploadBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	fileName := sanitizeFileName(file.Filename)
	contentType, ok := resolveContentType(file.Header.Get("Content-Type"), fileName)
	if !ok {
		BadRequest(c, "unsupported file type, expected pdf, docx or txt")
		return
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		logger.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	ctx := c.Request.Context()
	objectKey := fmt.Sprintf("resumes/%d/%d-%s", userID, time.Now().Unix(), fileName)
	if _, err := h.storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		logger.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	fileURL, err := h.storage.GeneratePresignedURL(ctx, objectKey, presignedURLTTL)
	if err != nil {
		logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate file url")
		return
	}

	record := database.ResumeRecord{
		UserID:        userID,
		FileName:      fileName,
		FileURL:       fileURL,
		FileType:      contentType,
		FileSizeBytes: file.Size,
		ObjectKey:     objectKey,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.Error("create resume record", slog.Any("error", err))
		Internal(c, "failed to save resume record")
		return
	}

	logger.Info("resume uploaded",
		slog.String("resume_id", record.ID),
		slog.String("object_key", objectKey),
		slog.Int64("size_bytes", file.Size),
	)
	c.JSON(http.StatusCreated, resumeResponse(&record))
}

// List 返回当前用户的简历记录，按上传时间倒序。
func (h *ResumeHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var records []database.ResumeRecord
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		h.loggerFromContext(c).Error("list resumes", slog.Any("error", err))
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]gin.H, 0, len(records))
	for i := range records {
		items = append(items, resumeResponse(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get 根据 ID 返回一条简历记录，容忍轻微的 ID 损坏。
func (h *ResumeHandler) Get(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	record, err := h.locator.Locate(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondLocateError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumeResponse(record))
}

// Delete 删除简历记录及其对象存储文件。
func (h *ResumeHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	record, err := h.locator.Locate(ctx, c.Param("id"), userID)
	if err != nil {
		h.respondLocateError(c, err)
		return
	}

	if record.ObjectKey != "" {
		if err := h.storage.DeleteObject(ctx, record.ObjectKey); err != nil {
			logger.Error("delete resume object", slog.String("object_key", record.ObjectKey), slog.Any("error", err))
			Internal(c, "failed to delete resume file")
			return
		}
	}

	if err := h.db.WithContext(ctx).Delete(&database.ResumeRecord{}, "id = ?", record.ID).Error; err != nil {
		logger.Error("delete resume record", slog.Any("error", err))
		Internal(c, "failed to delete resume record")
		return
	}

	logger.Info("resume deleted", slog.String("resume_id", record.ID))
	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) respondLocateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resolve.ErrInvalidIdentifier):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, resolve.ErrRecordNotFound):
		NotFound(c, "resume not found")
	case errors.Is(err, resolve.ErrNotAuthorized):
		Forbidden(c, "access denied")
	case errors.Is(err, resolve.ErrDuplicateRecord):
		h.loggerFromContext(c).Error("duplicate resume records", slog.Any("error", err))
		Internal(c, "duplicate resume records")
	default:
		h.loggerFromContext(c).Error("locate resume", slog.Any("error", err))
		Internal(c, "failed to locate resume")
	}
}

func (h *ResumeHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func resumeResponse(record *database.ResumeRecord) gin.H {
	return gin.H{
		"id":              record.ID,
		"file_name":       record.FileName,
		"file_url":        record.FileURL,
		"file_type":       record.FileType,
		"file_size_bytes": record.FileSizeBytes,
		"created_at":      record.CreatedAt,
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
