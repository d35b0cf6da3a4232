package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string `gorm:"size:255"`
}

// ResumeRecord 表示一次简历文件上传的权威记录。
// ID 是创建时分配的 UUID 文本形式，创建后不可变更；
// UserID 标记归属，所有访问都必须校验归属。
type ResumeRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        uint   `gorm:"index"`
	User          User   `gorm:"constraint:OnDelete:CASCADE"`
	FileName      string `gorm:"size:255"`
	FileURL       string `gorm:"size:1024"`
	FileType      string `gorm:"size:128"`
	FileSizeBytes int64
	ObjectKey     string `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BeforeCreate 在缺省情况下分配 UUID 主键。
func (r *ResumeRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ResumeAnalysis 保存一次 AI 简历分析的结构化结果。
type ResumeAnalysis struct {
	gorm.Model
	ResumeID        string `gorm:"index;size:36"`
	UserID          uint   `gorm:"index"`
	JobRole         string `gorm:"size:128"`
	Industry        string `gorm:"size:128"`
	ExperienceLevel string `gorm:"size:64"`
	OverallScore    int
	Result          datatypes.JSON `gorm:"type:jsonb"`
	MethodUsed      string         `gorm:"size:64"` // 文件解析所用的检索策略名
}

// OutreachMessage 保存一条 AI 生成的职场外联消息。
type OutreachMessage struct {
	gorm.Model
	UserID      uint   `gorm:"index"`
	Company     string `gorm:"size:255"`
	ContactName string `gorm:"size:255"`
	TargetRole  string `gorm:"size:128"`
	Purpose     string `gorm:"size:64"`
	Message     string `gorm:"type:text"`
}

// InterviewSession 表示一次模拟面试会话及其评分结果。
// Status 取值：pending / processing / completed / failed。
type InterviewSession struct {
	gorm.Model
	UserID          uint           `gorm:"index"`
	JobRole         string         `gorm:"size:128"`
	Industry        string         `gorm:"size:128"`
	ExperienceLevel string         `gorm:"size:64"`
	Status          string         `gorm:"size:32"`
	Transcript      datatypes.JSON `gorm:"type:jsonb"`
	Result          datatypes.JSON `gorm:"type:jsonb"`
	OverallScore    int
}
