package llm

import (
	"context"
	"fmt"
	"strings"
)

// OutreachRequest 描述一条待生成的职场外联消息。
type OutreachRequest struct {
	Company     string
	ContactName string
	TargetRole  string
	Purpose     string
	Background  string
}

const outreachSystemPrompt = `You write short, professional networking messages for finance-industry job seekers (LinkedIn messages, cold emails to recruiters or practitioners).

Rules:
- 80-150 words, first person, no subject line.
- Reference the company and role naturally; never sound like a template.
- No flattery padding, no emoji, no placeholders like [Name].
- Respond with ONLY the message text.`

// GenerateOutreach 生成一条外联消息文本。
func (c *Client) GenerateOutreach(ctx context.Context, req OutreachRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", req.Company)
	if req.ContactName != "" {
		fmt.Fprintf(&sb, "Contact: %s\n", req.ContactName)
	}
	fmt.Fprintf(&sb, "Target role: %s\n", req.TargetRole)
	fmt.Fprintf(&sb, "Purpose: %s\n", req.Purpose)
	if req.Background != "" {
		fmt.Fprintf(&sb, "My background: %s\n", req.Background)
	}

	text, err := c.Complete(ctx, outreachSystemPrompt, sb.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
