package queue

import (
	"encoding/json"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderDocument 下单后的文档（发票）生成任务
	TaskOrderDocument = constants.TaskOrderDocument
)

// OrderDocumentPayload 文档生成任务载荷
type OrderDocumentPayload struct {
	OrderID   string `json:"order_id"`
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id,omitempty"`
}

// NewOrderDocumentTask 构造文档生成任务
func NewOrderDocumentTask(payload OrderDocumentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderDocument, data), nil
}
