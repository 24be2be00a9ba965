package worker

import (
	"context"
	"encoding/json"

	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	gw gateway.OrderGateway
}

// NewConsumer 创建消费者
func NewConsumer(gw gateway.OrderGateway) *Consumer {
	return &Consumer{gw: gw}
}

// Register 注册任务处理器
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderDocument, c.handleOrderDocument)
}

// handleOrderDocument 请求平台生成订单文档。平台调用失败时返回错误，
// 由 asynq 按默认策略重试。
func (c *Consumer) handleOrderDocument(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_document_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderDocumentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_document_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == "" {
		logger.Debugw("worker_order_document_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	doc, err := c.gw.GenerateOrderDocument(ctx, payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_document_generate_failed",
			"order_id", payload.OrderID,
			"account_id", payload.AccountID,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_order_document_generated",
		"order_id", payload.OrderID,
		"document_id", doc.ID,
		"download_url", doc.DownloadURL,
	)
	return nil
}
