package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisContext 携带分析的目标岗位背景，字段都可为空。
type AnalysisContext struct {
	JobRole         string
	Industry        string
	ExperienceLevel string
}

// ResumeAnalysis 是模型返回的结构化简历评估。
type ResumeAnalysis struct {
	OverallScore  int            `json:"overall_score"`
	Summary       string         `json:"summary"`
	Strengths     []string       `json:"strengths"`
	Weaknesses    []string       `json:"weaknesses"`
	Improvements  []string       `json:"improvements"`
	SectionScores map[string]int `json:"section_scores"`
}

const analyzeSystemPrompt = `You are a finance-industry resume reviewer. Grade resumes for finance roles (investment banking, asset management, corporate finance, fintech).

Always respond with ONLY a JSON object (no markdown, no backticks, no explanation) with these fields:
{
  "overall_score": 0-100,
  "summary": "2-3 sentence overall assessment",
  "strengths": ["specific strength", "..."],
  "weaknesses": ["specific weakness", "..."],
  "improvements": ["concrete, actionable improvement", "..."],
  "section_scores": {"experience": 0-100, "education": 0-100, "skills": 0-100, "formatting": 0-100}
}

Rules:
- Judge only what is in the resume. Don't invent experience.
- Weigh quantified impact (deal sizes, AUM, returns) heavily for finance roles.
- Keep each list to 3-5 items.`

// AnalyzeResume 把简历文本交给模型评分并解析结构化结果。
func (c *Client) AnalyzeResume(ctx context.Context, resumeText string, actx AnalysisContext) (*ResumeAnalysis, error) {
	var sb strings.Builder
	sb.WriteString("Grade this resume and return the JSON.\n")
	if actx.JobRole != "" {
		fmt.Fprintf(&sb, "Target role: %s\n", actx.JobRole)
	}
	if actx.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", actx.Industry)
	}
	if actx.ExperienceLevel != "" {
		fmt.Fprintf(&sb, "Experience level: %s\n", actx.ExperienceLevel)
	}
	sb.WriteString("\nResume:\n")
	sb.WriteString(resumeText)

	text, err := c.Complete(ctx, analyzeSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var analysis ResumeAnalysis
	if err := json.Unmarshal([]byte(stripFences(text)), &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis result: %w", err)
	}
	return &analysis, nil
}
