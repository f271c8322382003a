package report

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// NotifyPayload 报告完成后推送给 webhook 的消息体
type NotifyPayload struct {
	ReportDate string `json:"report_date"`
	FileName   string `json:"file_name"`
	Areas      int    `json:"areas"`
}

// Notifier 日报完成后的 webhook 通知
type Notifier struct {
	httpClient *resty.Client
	webhookURL string
	logger     *zap.Logger
}

// NewNotifier webhookURL 为空表示关闭通知
func NewNotifier(webhookURL string, logger *zap.Logger) *Notifier {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Notifier{
		httpClient: client,
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// Notify 推送报告完成消息
func (n *Notifier) Notify(ctx context.Context, reportDate, reportPath string, areaCount int) error {
	if n.webhookURL == "" {
		n.logger.Debug("webhook not configured, skipping notification")
		return nil
	}

	payload := NotifyPayload{
		ReportDate: reportDate,
		FileName:   filepath.Base(reportPath),
		Areas:      areaCount,
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Error("webhook call failed", zap.Error(err))
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	if resp.IsError() {
		n.logger.Error("webhook returned error status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Info("report notification sent",
		zap.String("report_date", reportDate),
		zap.String("file", payload.FileName),
	)
	return nil
}
