package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the CloudWatch call Metrics needs.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes scheduler metrics to CloudWatch. Failures are logged,
// never returned. A nil client disables publishing.
type Metrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client PutMetricDataAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordReportRun records one scheduled report run over a set of users.
func (m *Metrics) RecordReportRun(ctx context.Context, users, generated, failed int, duration time.Duration) {
	now := aws.Time(time.Now())
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("ReportUsers"),
			Value:      aws.Float64(float64(users)),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
		{
			MetricName: aws.String("ReportsGenerated"),
			Value:      aws.Float64(float64(generated)),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
		{
			MetricName: aws.String("ReportFailures"),
			Value:      aws.Float64(float64(failed)),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
		{
			MetricName: aws.String("ReportRunLatency"),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  now,
		},
	})
}

// RecordLatency records latency for any operation
func (m *Metrics) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("OperationLatency"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Operation"), Value: aws.String(operation)},
			},
			Value:     aws.Float64(float64(latency.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	if m == nil || m.client == nil {
		return
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to send metrics", zap.String("namespace", m.namespace), zap.Error(err))
	}
}
