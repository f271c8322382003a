package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"footfall-data/internal/analytics"
	"footfall-data/internal/config"
	"footfall-data/internal/database"
	"footfall-data/internal/logger"
	"footfall-data/internal/report"
	"footfall-data/internal/repository"
	"footfall-data/internal/service"
)

// 一次性任务：统计昨天的客流并生成日报工作簿，供定时任务调用
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "footfall-report")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Report generation failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	readingsRepo := repository.NewPostgresReadingsRepository(db, log)
	svc := service.NewReportService(readingsRepo, log)

	// 报告覆盖昨天一个自然日
	yesterday := time.Now().AddDate(0, 0, -1)
	dayStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.Local)
	day := analytics.Window{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}
	reportDate := dayStart.Format("2006-01-02")

	log.Info("Generating daily report", zap.String("report_date", reportDate))

	rows, err := svc.DailyStats(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to compute daily stats: %w", err)
	}

	path, err := report.WriteWorkbook(rows, reportDate, cfg.Report.OutputDir)
	if err != nil {
		return err
	}
	log.Info("Report written", zap.String("path", path))

	notifier := report.NewNotifier(cfg.Report.WebhookURL, log)
	if err := notifier.Notify(ctx, reportDate, path, len(rows)); err != nil {
		// 通知失败不作废已生成的报告
		log.Warn("Report notification failed", zap.Error(err))
	}
	return nil
}
