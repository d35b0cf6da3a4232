package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"finCoach/internal/database"
	"finCoach/internal/match"
)

// DefaultSimilarityThreshold 是模糊找回记录时的接受下限（严格大于才接受）。
// 两个历史调用方分别用过 0.9 与 0.8，这里统一收敛到更保守的 0.9，
// 避免后端把相似度不足的记录自动替换给用户。
const DefaultSimilarityThreshold = 0.9

// 规范 UUID 形态：8-4-4-4-12，版本位 1-5，变体位 8/9/a/b。
var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Locator 把可能不精确的简历标识符解析为权威数据库记录。
// 精确命中优先；查不到时退回到同前缀候选里按位置相似度找回。
type Locator struct {
	db        *gorm.DB
	threshold float64
}

// NewLocator 使用默认相似度阈值构造 Locator。
func NewLocator(db *gorm.DB) *Locator {
	return NewLocatorWithThreshold(db, DefaultSimilarityThreshold)
}

// NewLocatorWithThreshold 允许调用方自定阈值（用于测试或策略调整）。
func NewLocatorWithThreshold(db *gorm.DB, threshold float64) *Locator {
	return &Locator{db: db, threshold: threshold}
}

// Locate 返回 requestedID 对应的简历记录。
// 归属校验在两条路径（精确/模糊）之后统一执行，确保替换命中的记录
// 也不会跨用户泄露。
func (l *Locator) Locate(ctx context.Context, requestedID string, ownerID uint) (*database.ResumeRecord, error) {
	if !uuidPattern.MatchString(requestedID) {
		return nil, ErrInvalidIdentifier
	}

	// 取两行即可区分"唯一/缺失/重复"三种情况。
	var rows []database.ResumeRecord
	if err := l.db.WithContext(ctx).
		Where("id = ?", requestedID).
		Limit(2).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: exact lookup: %v", ErrStorageQueryFailed, err)
	}

	var record *database.ResumeRecord
	switch len(rows) {
	case 0:
		fuzzy, err := l.fuzzyLocate(ctx, requestedID)
		if err != nil {
			return nil, err
		}
		record = fuzzy
	case 1:
		record = &rows[0]
	default:
		// 主键约束正常时不可能走到，但数据损坏时绝不能静默选一条。
		return nil, ErrDuplicateRecord
	}

	if record.UserID != ownerID {
		return nil, ErrNotAuthorized
	}
	return record, nil
}

// fuzzyLocate 按首个连字符前的段做前缀查询，再用位置相似度挑最优候选。
// 并列最高分保留先出现的那个（稳定的从左到右归约，不重排）。
func (l *Locator) fuzzyLocate(ctx context.Context, requestedID string) (*database.ResumeRecord, error) {
	segment := requestedID[:strings.Index(requestedID, "-")]

	var candidates []database.ResumeRecord
	if err := l.db.WithContext(ctx).
		Where("id LIKE ?", segment+"%").
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("%w: prefix lookup: %v", ErrStorageQueryFailed, err)
	}
	if len(candidates) == 0 {
		return nil, ErrRecordNotFound
	}

	best := &candidates[0]
	bestScore := match.Score(requestedID, candidates[0].ID)
	for i := 1; i < len(candidates); i++ {
		if s := match.Score(requestedID, candidates[i].ID); s > bestScore {
			best = &candidates[i]
			bestScore = s
		}
	}

	if bestScore <= l.threshold {
		return nil, ErrRecordNotFound
	}
	return best, nil
}
