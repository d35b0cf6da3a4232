package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finCoach/internal/database"
)

func newResumeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.ResumeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newUploadRequest(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func performUpload(t *testing.T, h *ResumeHandler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/v1/resumes", func(c *gin.Context) {
		c.Set("userID", uint(1))
		h.Upload(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	h := NewResumeHandler(newResumeTestDB(t), nil, nil, 16, "")

	req := newUploadRequest(t, "cv.pdf", "application/pdf", bytes.Repeat([]byte("a"), 64))
	w := performUpload(t, h, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	h := NewResumeHandler(newResumeTestDB(t), nil, nil, 1024, "")

	req := newUploadRequest(t, "avatar.png", "image/png", []byte("\x89PNG"))
	w := performUpload(t, h, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	h := NewResumeHandler(newResumeTestDB(t), nil, nil, 1024, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", nil)
	w := performUpload(t, h, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestResolveContentType(t *testing.T) {
	cases := []struct {
		header   string
		fileName string
		want     string
		ok       bool
	}{
		{"application/pdf", "cv.pdf", "application/pdf", true},
		{"application/pdf; charset=binary", "cv", "application/pdf", true},
		{"", "cv.docx", docxContentType, true},
		{"application/octet-stream", "notes.txt", "text/plain", true},
		{"image/png", "avatar.png", "", false},
		{"", "archive.zip", "", false},
	}
	for _, tc := range cases {
		got, ok := resolveContentType(tc.header, tc.fileName)
		if got != tc.want || ok != tc.ok {
			t.Errorf("resolveContentType(%q, %q) = %q, %v; want %q, %v",
				tc.header, tc.fileName, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\cv.docx`, "cv.docx"},
		{"my resume?.pdf", "my resume_.pdf"},
	}
	for _, tc := range cases {
		if got := sanitizeFileName(tc.in); got != tc.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
