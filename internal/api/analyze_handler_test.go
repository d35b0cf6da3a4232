package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finCoach/internal/database"
	"finCoach/internal/llm"
	"finCoach/internal/resolve"
)

type fakeLocator struct {
	record *database.ResumeRecord
	err    error
}

func (f *fakeLocator) Locate(_ context.Context, _ string, _ uint) (*database.ResumeRecord, error) {
	return f.record, f.err
}

type fakeResolver struct {
	outcome *resolve.Outcome
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, _ *database.ResumeRecord) (*resolve.Outcome, error) {
	return f.outcome, f.err
}

type fakeAnalyzer struct {
	analysis *llm.ResumeAnalysis
	err      error
	gotText  string
}

func (f *fakeAnalyzer) AnalyzeResume(_ context.Context, resumeText string, _ llm.AnalysisContext) (*llm.ResumeAnalysis, error) {
	f.gotText = resumeText
	return f.analysis, f.err
}

func newAnalyzeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.ResumeRecord{}, &database.ResumeAnalysis{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func performAnalyze(t *testing.T, h *AnalyzeHandler, userID uint, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/v1/resumes/analyze", func(c *gin.Context) {
		c.Set("userID", userID)
		h.Analyze(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeSuccess(t *testing.T) {
	db := newAnalyzeTestDB(t)
	record := &database.ResumeRecord{
		ID:       "aaaaaaaa-1111-4222-8333-444444444444",
		UserID:   1,
		FileName: "resume.txt",
		FileType: "text/plain",
	}
	analyzer := &fakeAnalyzer{
		analysis: &llm.ResumeAnalysis{
			OverallScore: 78,
			Summary:      "solid candidate",
			Strengths:    []string{"quantified impact"},
		},
	}
	h := NewAnalyzeHandler(db,
		&fakeLocator{record: record},
		&fakeResolver{outcome: &resolve.Outcome{
			Bytes:      []byte("finance resume text"),
			MethodUsed: "direct_url",
		}},
		analyzer, nil)

	w := performAnalyze(t, h, 1, `{"resume_id":"aaaaaaaa-1111-4222-8333-444444444444","job_role":"IB Analyst"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		ResumeID   string             `json:"resume_id"`
		MethodUsed string             `json:"method_used"`
		Analysis   llm.ResumeAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MethodUsed != "direct_url" {
		t.Errorf("method_used = %q", resp.MethodUsed)
	}
	if resp.Analysis.OverallScore != 78 {
		t.Errorf("overall_score = %d", resp.Analysis.OverallScore)
	}
	if analyzer.gotText != "finance resume text" {
		t.Errorf("analyzer received %q", analyzer.gotText)
	}

	var saved database.ResumeAnalysis
	if err := db.Where("resume_id = ?", record.ID).First(&saved).Error; err != nil {
		t.Fatalf("analysis should be persisted: %v", err)
	}
	if saved.OverallScore != 78 || saved.MethodUsed != "direct_url" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestAnalyzeLocateErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid id", resolve.ErrInvalidIdentifier, http.StatusBadRequest},
		{"not found", resolve.ErrRecordNotFound, http.StatusNotFound},
		{"not authorized", resolve.ErrNotAuthorized, http.StatusForbidden},
		{"duplicate", resolve.ErrDuplicateRecord, http.StatusInternalServerError},
		{"storage failure", resolve.ErrStorageQueryFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAnalyzeHandler(newAnalyzeTestDB(t),
				&fakeLocator{err: tc.err},
				&fakeResolver{}, &fakeAnalyzer{}, nil)

			w := performAnalyze(t, h, 1, `{"resume_id":"x"}`)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestAnalyzeFileUnresolvable(t *testing.T) {
	record := &database.ResumeRecord{ID: "aaaaaaaa-1111-4222-8333-444444444444", UserID: 1}
	unresolvable := &resolve.UnresolvableError{Attempts: []resolve.Attempt{
		{Method: "direct_url", Err: errors.New("404")},
		{Method: "filename_patterns_exact", Err: errors.New("no match")},
	}}
	h := NewAnalyzeHandler(newAnalyzeTestDB(t),
		&fakeLocator{record: record},
		&fakeResolver{err: unresolvable},
		&fakeAnalyzer{}, nil)

	w := performAnalyze(t, h, 1, `{"resume_id":"aaaaaaaa-1111-4222-8333-444444444444"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestAnalyzeUnsupportedFileType(t *testing.T) {
	record := &database.ResumeRecord{ID: "aaaaaaaa-1111-4222-8333-444444444444", UserID: 1, FileType: "image/png"}
	h := NewAnalyzeHandler(newAnalyzeTestDB(t),
		&fakeLocator{record: record},
		&fakeResolver{outcome: &resolve.Outcome{Bytes: []byte("x"), MethodUsed: "direct_url"}},
		&fakeAnalyzer{}, nil)

	w := performAnalyze(t, h, 1, `{"resume_id":"aaaaaaaa-1111-4222-8333-444444444444"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeLLMFailure(t *testing.T) {
	record := &database.ResumeRecord{ID: "aaaaaaaa-1111-4222-8333-444444444444", UserID: 1, FileType: "text/plain"}
	h := NewAnalyzeHandler(newAnalyzeTestDB(t),
		&fakeLocator{record: record},
		&fakeResolver{outcome: &resolve.Outcome{Bytes: []byte("text"), MethodUsed: "direct_url"}},
		&fakeAnalyzer{err: errors.New("api down")}, nil)

	w := performAnalyze(t, h, 1, `{"resume_id":"aaaaaaaa-1111-4222-8333-444444444444"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestAnalyzeMissingResumeID(t *testing.T) {
	h := NewAnalyzeHandler(newAnalyzeTestDB(t), &fakeLocator{}, &fakeResolver{}, &fakeAnalyzer{}, nil)

	w := performAnalyze(t, h, 1, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
