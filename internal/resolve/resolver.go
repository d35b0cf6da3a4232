package resolve

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"finCoach/internal/database"
	"finCoach/internal/storage"
)

// 取回策略名，按尝试顺序出现在 Outcome.Attempts 中。
const (
	MethodDirectURL         = "direct_url"
	MethodURLPathExtraction = "url_path_extraction"
	MethodFilenameExact     = "filename_patterns_exact"
	MethodFilenamePartial   = "filename_patterns_partial"
)

// 文件名回退搜索单次列举的上限。
const defaultListLimit = 100

// Accessor 抽象对象存储的三种访问方式，storage.Client 是生产实现。
type Accessor interface {
	FetchURL(ctx context.Context, rawURL string) ([]byte, error)
	Download(ctx context.Context, objectKey string) ([]byte, error)
	List(ctx context.Context, prefix string, limit int) ([]storage.ObjectMeta, error)
}

// Outcome 是一次取回的结果：成功时带字节与所用策略名，
// 失败时 Bytes 为空、Attempts 按顺序记录每次失败。
// 每个请求构造一份，用完即弃，不缓存。
type Outcome struct {
	Bytes      []byte
	MethodUsed string
	Attempts   []Attempt
}

// Strategy 是一种自包含的取字节方式。
// 返回取到的字节与策略名；attempts 记录本策略内失败的子尝试。
type Strategy interface {
	Attempt(ctx context.Context, record *database.ResumeRecord) (data []byte, method string, attempts []Attempt)
}

// Resolver 按固定优先级跑策略列表，取到第一份字节即停。
// 只读、幂等：并发解析同一条记录最多造成冗余 I/O，不需要互斥。
type Resolver struct {
	strategies []Strategy
}

// NewResolver 构造带默认策略顺序（直接 URL → 文件名匹配）的 Resolver。
func NewResolver(accessor Accessor, bucket string) *Resolver {
	return &Resolver{
		strategies: []Strategy{
			&directURLStrategy{accessor: accessor, bucket: bucket},
			&filenamePatternStrategy{accessor: accessor, listLimit: defaultListLimit},
		},
	}
}

// Resolve 依次尝试各策略；全部失败时返回 *UnresolvableError，
// 其中保留每个方法的错误供诊断输出。不做重试，不并行。
func (r *Resolver) Resolve(ctx context.Context, record *database.ResumeRecord) (*Outcome, error) {
	out := &Outcome{}
	for _, s := range r.strategies {
		data, method, attempts := s.Attempt(ctx, record)
		out.Attempts = append(out.Attempts, attempts...)
		if data != nil {
			out.Bytes = data
			out.MethodUsed = method
			return out, nil
		}
	}
	return out, &UnresolvableError{Attempts: out.Attempts}
}

// directURLStrategy 先按记录里的历史 URL 直接抓取；
// 失败后尝试从 URL 路径里解析出 Bucket 内对象路径并直接下载。
type directURLStrategy struct {
	accessor Accessor
	bucket   string
}

func (s *directURLStrategy) Attempt(ctx context.Context, record *database.ResumeRecord) ([]byte, string, []Attempt) {
	rawURL := strings.TrimSpace(record.FileURL)
	if rawURL == "" {
		return nil, "", nil
	}

	data, err := s.accessor.FetchURL(ctx, rawURL)
	if err == nil {
		return data, MethodDirectURL, nil
	}
	attempts := []Attempt{{Method: MethodDirectURL, Err: err}}

	objectPath, ok := storage.ExtractObjectPath(rawURL, s.bucket)
	if !ok {
		attempts = append(attempts, Attempt{
			Method: MethodURLPathExtraction,
			Err:    errors.New("no recognizable object path in url"),
		})
		return nil, "", attempts
	}

	data, err = s.accessor.Download(ctx, objectPath)
	if err == nil {
		return data, MethodURLPathExtraction, nil
	}
	attempts = append(attempts, Attempt{Method: MethodURLPathExtraction, Err: err})
	return nil, "", attempts
}

// filenamePatternStrategy 列举 Bucket 并按文件名候选做两轮匹配：
// 先精确（含上传键的 "<时间戳>-" 前缀形态），再子串。
type filenamePatternStrategy struct {
	accessor  Accessor
	listLimit int
}

func (s *filenamePatternStrategy) Attempt(ctx context.Context, record *database.ResumeRecord) ([]byte, string, []Attempt) {
	fileName := strings.TrimSpace(record.FileName)
	if fileName == "" {
		return nil, "", nil
	}

	candidates := filenameCandidates(fileName, record.FileURL)

	prefix := fmt.Sprintf("resumes/%d/", record.UserID)
	objects, err := s.accessor.List(ctx, prefix, s.listLimit)
	if err != nil {
		return nil, "", []Attempt{{
			Method: MethodFilenameExact,
			Err:    fmt.Errorf("list bucket: %w", err),
		}}
	}

	var attempts []Attempt

	// 第一轮：精确匹配。列举键的末段等于候选名，或等于 "<数字>-候选名"
	// （上传键按 "<unix>-<文件名>" 写入，记录 URL 里未必带这个前缀）。
	for _, cand := range candidates {
		for _, obj := range objects {
			base := path.Base(obj.Key)
			if base != cand && !matchesTimestampPrefixed(base, cand) {
				continue
			}
			data, err := s.accessor.Download(ctx, obj.Key)
			if err == nil {
				return data, MethodFilenameExact, attempts
			}
			attempts = append(attempts, Attempt{
				Method: MethodFilenameExact,
				Err:    fmt.Errorf("download %q: %w", obj.Key, err),
			})
		}
	}
	if len(attempts) == 0 {
		attempts = append(attempts, Attempt{
			Method: MethodFilenameExact,
			Err:    errors.New("no exact filename match in listing"),
		})
	}

	// 第二轮：取第一个包含任一候选名（或原始文件名）的对象，只试一次。
	for _, obj := range objects {
		if !containsAnyCandidate(obj.Key, candidates, fileName) {
			continue
		}
		data, err := s.accessor.Download(ctx, obj.Key)
		if err == nil {
			return data, MethodFilenamePartial, attempts
		}
		attempts = append(attempts, Attempt{
			Method: MethodFilenamePartial,
			Err:    fmt.Errorf("download %q: %w", obj.Key, err),
		})
		return nil, "", attempts
	}

	attempts = append(attempts, Attempt{
		Method: MethodFilenamePartial,
		Err:    errors.New("no partial filename match in listing"),
	})
	return nil, "", attempts
}

// filenameCandidates 生成回退搜索的文件名候选：
// 原始名、空白折叠为下划线的名字，以及二者带 "时间戳-" 前缀的形态
// （时间戳取自记录 URL 末段首个连字符前的纯数字 token，取不到则省略）。
func filenameCandidates(fileName, fileURL string) []string {
	underscored := strings.Join(strings.Fields(fileName), "_")

	candidates := []string{fileName}
	if underscored != fileName {
		candidates = append(candidates, underscored)
	}

	if ts := timestampTokenFromURL(fileURL); ts != "" {
		candidates = append(candidates, ts+"-"+fileName)
		if underscored != fileName {
			candidates = append(candidates, ts+"-"+underscored)
		}
	}
	return candidates
}

// timestampTokenFromURL 从 URL 末段取首个连字符前的 token，要求全为数字。
func timestampTokenFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	trailing := rawURL
	if idx := strings.LastIndex(trailing, "/"); idx >= 0 {
		trailing = trailing[idx+1:]
	}
	if idx := strings.Index(trailing, "?"); idx >= 0 {
		trailing = trailing[:idx]
	}
	hyphen := strings.Index(trailing, "-")
	if hyphen <= 0 {
		return ""
	}
	token := trailing[:hyphen]
	if !isDigits(token) {
		return ""
	}
	return token
}

func matchesTimestampPrefixed(base, candidate string) bool {
	hyphen := strings.Index(base, "-")
	if hyphen <= 0 {
		return false
	}
	return isDigits(base[:hyphen]) && base[hyphen+1:] == candidate
}

func containsAnyCandidate(key string, candidates []string, fileName string) bool {
	for _, cand := range candidates {
		if strings.Contains(key, cand) {
			return true
		}
	}
	return strings.Contains(key, fileName)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
