package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TranscriptTurn 是面试记录里的一轮发言。
type TranscriptTurn struct {
	Role string `json:"role"` // interviewer / candidate
	Text string `json:"text"`
}

// InterviewScore 是模型对一场模拟面试的结构化评分。
type InterviewScore struct {
	OverallScore    int      `json:"overall_score"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

const interviewSystemPrompt = `You evaluate mock finance-job interviews from a transcript.

Always respond with ONLY a JSON object (no markdown, no backticks) with these fields:
{
  "overall_score": 0-100,
  "summary": "2-3 sentence assessment of the candidate's performance",
  "strengths": ["..."],
  "weaknesses": ["..."],
  "recommendations": ["concrete practice advice", "..."]
}

Rules:
- Judge technical accuracy, structure of answers, and communication.
- Keep each list to 3-5 items.`

// ScoreInterview 把面试记录交给模型评分并解析结构化结果。
func (c *Client) ScoreInterview(ctx context.Context, turns []TranscriptTurn, job AnalysisContext) (*InterviewScore, error) {
	var sb strings.Builder
	sb.WriteString("Score this mock interview and return the JSON.\n")
	if job.JobRole != "" {
		fmt.Fprintf(&sb, "Target role: %s\n", job.JobRole)
	}
	if job.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", job.Industry)
	}
	if job.ExperienceLevel != "" {
		fmt.Fprintf(&sb, "Experience level: %s\n", job.ExperienceLevel)
	}
	sb.WriteString("\nTranscript:\n")
	for _, turn := range turns {
		fmt.Fprintf(&sb, "[%s] %s\n", turn.Role, turn.Text)
	}

	text, err := c.Complete(ctx, interviewSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var score InterviewScore
	if err := json.Unmarshal([]byte(stripFences(text)), &score); err != nil {
		return nil, fmt.Errorf("parse interview score: %w", err)
	}
	return &score, nil
}
