package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finCoach/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.AnthropicConfig{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "test-model",
		MaxTokens: 1024,
	})
}

func cannedResponse(text string) string {
	resp := map[string]any{
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestCompleteSendsHeadersAndParsesText(t *testing.T) {
	var gotReq messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(cannedResponse("hello")))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	text, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q", text)
	}
	if gotReq.Model != "test-model" || gotReq.MaxTokens != 1024 {
		t.Errorf("request model/maxTokens = %s/%d", gotReq.Model, gotReq.MaxTokens)
	}
	if gotReq.System != "system prompt" {
		t.Errorf("system = %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry status code, got %v", err)
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	client := NewClient(config.AnthropicConfig{BaseURL: "http://unused"})
	if _, err := client.Complete(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestAnalyzeResumeParsesFencedJSON(t *testing.T) {
	body := "```json\n" + `{"overall_score":82,"summary":"solid","strengths":["a"],"weaknesses":["b"],"improvements":["c"],"section_scores":{"experience":80}}` + "\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cannedResponse(body)))
	}))
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeResume(context.Background(), "resume text", AnalysisContext{JobRole: "Analyst"})
	if err != nil {
		t.Fatalf("AnalyzeResume: %v", err)
	}
	if analysis.OverallScore != 82 {
		t.Errorf("OverallScore = %d", analysis.OverallScore)
	}
	if analysis.SectionScores["experience"] != 80 {
		t.Errorf("SectionScores = %v", analysis.SectionScores)
	}
}

func TestScoreInterviewParsesJSON(t *testing.T) {
	body := `{"overall_score":65,"summary":"ok","strengths":[],"weaknesses":["vague"],"recommendations":["practice DCF"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cannedResponse(body)))
	}))
	defer srv.Close()

	score, err := newTestClient(srv.URL).ScoreInterview(context.Background(), []TranscriptTurn{
		{Role: "interviewer", Text: "Walk me through a DCF."},
		{Role: "candidate", Text: "You project cash flows..."},
	}, AnalysisContext{JobRole: "IB Analyst"})
	if err != nil {
		t.Fatalf("ScoreInterview: %v", err)
	}
	if score.OverallScore != 65 {
		t.Errorf("OverallScore = %d", score.OverallScore)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
