package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Records(t *testing.T) {
	// Arrange
	c := NewCollector("diary_test")

	// Act
	c.RecordHTTP("GET", "/api/v1/maps", 200, 10*time.Millisecond)
	c.RecordStore("fetch", time.Millisecond, nil)
	c.RecordStore("batch", time.Millisecond, errors.New("boom"))
	c.RecordAICall("ideas", time.Second, nil)
	c.RecordAIRetry("ideas")
	c.RecordAIRetry("ideas")
	c.RecordCommand("AddChildCommand", time.Millisecond, nil)
	c.RecordEvent("node.created", 1)
	c.RecordEvent("node.cascade_deleted", 4)
	c.RecordReport("weekly")
	c.RecordCache(true)
	c.RecordCache(false)

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/v1/maps", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("batch", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AICalls.WithLabelValues("ideas", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.AIRetries.WithLabelValues("ideas")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("AddChildCommand", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NodesCreated))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.NodesDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Reports.WithLabelValues("weekly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheMisses))
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordHTTP("GET", "/", 200, time.Millisecond)
		c.RecordAICall("ideas", time.Millisecond, nil)
		c.RecordEvent("node.created", 1)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("diary_test")
	c.RecordReport("monthly")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `diary_test_reports_generated_total{type="monthly"} 1`)
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetrics_RecordReportRun(t *testing.T) {
	// Arrange
	client := &fakeCloudWatch{}
	m := NewMetrics("Diary/test", client, zap.NewNop())

	// Act
	m.RecordReportRun(context.Background(), 3, 2, 1, 1500*time.Millisecond)

	// Assert
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "Diary/test", aws.ToString(in.Namespace))
	require.Len(t, in.MetricData, 4)
	assert.Equal(t, "ReportsGenerated", aws.ToString(in.MetricData[1].MetricName))
	assert.Equal(t, 2.0, aws.ToFloat64(in.MetricData[1].Value))
	assert.Equal(t, 1500.0, aws.ToFloat64(in.MetricData[3].Value))
}

func TestMetrics_FailuresAreSwallowed(t *testing.T) {
	client := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewMetrics("Diary/test", client, zap.NewNop())

	assert.NotPanics(t, func() {
		m.RecordLatency(context.Background(), "reports", time.Second)
	})
	assert.Len(t, client.inputs, 1)

	var disabled *Metrics
	assert.NotPanics(t, func() {
		disabled.RecordLatency(context.Background(), "reports", time.Second)
	})
}

func TestTracer_DisabledRunsUntraced(t *testing.T) {
	tracer := NewTracer("diary", false)
	called := false

	err := tracer.TraceFunction(context.Background(), "fetch", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, tracer.Enabled())
}
