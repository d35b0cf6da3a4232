package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeInterviewScore = "interview:score"
)

// InterviewScorePayload 描述评分一场面试所需的最小信息。
type InterviewScorePayload struct {
	SessionID     uint   `json:"session_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewInterviewScoreTask 构造一个新的面试评分任务。
func NewInterviewScoreTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(InterviewScorePayload{
		SessionID:     id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInterviewScore, payload), nil
}
