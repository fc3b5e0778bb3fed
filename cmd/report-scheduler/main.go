// Package main implements the scheduled Lambda that generates the due weekly
// and monthly reports for every configured user.
package main

import (
	"context"
	"log"
	"time"

	"diary-backend/application/commands"
	"diary-backend/domain/core/entities"
	"diary-backend/infrastructure/config"
	"diary-backend/infrastructure/di"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.IsLambda = true

	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}
}

// RunResult summarizes one scheduled run.
type RunResult struct {
	Users     int `json:"users"`
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
}

// Handler generates reports for each user in REPORT_USER_IDS. A failure for
// one user is logged and counted without stopping the others.
func Handler(ctx context.Context, event awsevents.CloudWatchEvent) (RunResult, error) {
	start := time.Now()
	logger := container.Logger.With(zap.String("event_id", event.ID))

	result := RunResult{Users: len(container.Config.ReportUserIDs)}
	for _, userID := range container.Config.ReportUserIDs {
		out, err := container.CommandBus.Send(ctx, commands.GenerateReportsCommand{UserID: userID})
		if err != nil {
			result.Failed++
			logger.Error("Report generation failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		reports, _ := out.([]entities.Report)
		result.Generated += len(reports)
		logger.Info("Reports generated", zap.String("user_id", userID), zap.Int("count", len(reports)))
	}

	container.Metrics.RecordReportRun(ctx, result.Users, result.Generated, result.Failed, time.Since(start))
	return result, nil
}

func main() {
	lambda.Start(Handler)
}
