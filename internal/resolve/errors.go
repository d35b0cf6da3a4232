package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// 定位与取回阶段的命名错误；上层 handler 用 errors.Is 映射为 HTTP 状态。
var (
	ErrInvalidIdentifier  = errors.New("invalid resume identifier")
	ErrStorageQueryFailed = errors.New("storage query failed")
	ErrRecordNotFound     = errors.New("resume record not found")
	ErrDuplicateRecord    = errors.New("duplicate resume records for id")
	ErrNotAuthorized      = errors.New("resume does not belong to requester")
	ErrFileUnresolvable   = errors.New("resume file unresolvable")
)

// Attempt 记录一次失败的取回尝试，用于诊断输出。
type Attempt struct {
	Method string
	Err    error
}

// UnresolvableError 在所有策略都失败时返回，按尝试顺序携带各策略的错误。
type UnresolvableError struct {
	Attempts []Attempt
}

func (e *UnresolvableError) Error() string {
	methods := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		methods = append(methods, a.Method)
	}
	return fmt.Sprintf("resume file unresolvable (attempted: %s)", strings.Join(methods, ", "))
}

// Is 使 errors.Is(err, ErrFileUnresolvable) 成立。
func (e *UnresolvableError) Is(target error) bool {
	return target == ErrFileUnresolvable
}

// Details 返回适合放进响应 details 字段的逐次错误描述。
func (e *UnresolvableError) Details() []string {
	details := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		details = append(details, fmt.Sprintf("%s: %v", a.Method, a.Err))
	}
	return details
}
