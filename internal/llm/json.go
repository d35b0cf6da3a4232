package llm

import "strings"

// stripFences 去掉模型偶尔包在 JSON 外面的 markdown 代码围栏。
func stripFences(text string) string {
	clean := strings.TrimSpace(text)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}
