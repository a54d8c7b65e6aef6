package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	defaultLogGroup  = "/shopswift/services"
	logBatchSize     = 100
	logRetentionDays = 30
	logPutTimeout    = 5 * time.Second
)

type cloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsWriter ships log lines to a CloudWatch Logs stream. It
// implements zapcore.WriteSyncer: lines are buffered and sent in batches of
// logBatchSize, and Sync sends whatever is pending.
type CloudWatchLogsWriter struct {
	client cloudWatchLogsAPI
	group  string
	stream string

	mu      sync.Mutex
	pending []types.InputLogEvent
	now     func() time.Time
}

// NewCloudWatchLogsWriter creates the log group (CLOUDWATCH_LOG_GROUP) if
// needed and a fresh stream named after the service.
func NewCloudWatchLogsWriter(ctx context.Context, serviceName string) (*CloudWatchLogsWriter, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	group := os.Getenv("CLOUDWATCH_LOG_GROUP")
	if group == "" {
		group = defaultLogGroup
	}
	stream := fmt.Sprintf("%s-%d", serviceName, time.Now().Unix())

	return newCloudWatchLogsWriter(ctx, cloudwatchlogs.NewFromConfig(cfg), group, stream)
}

func newCloudWatchLogsWriter(ctx context.Context, api cloudWatchLogsAPI, group, stream string) (*CloudWatchLogsWriter, error) {
	w := &CloudWatchLogsWriter{client: api, group: group, stream: stream, now: time.Now}

	_, err := api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("failed to create log group: %w", err)
	}
	if err == nil {
		if _, err := api.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
			LogGroupName:    aws.String(group),
			RetentionInDays: aws.Int32(logRetentionDays),
		}); err != nil {
			return nil, fmt.Errorf("failed to set retention policy: %w", err)
		}
	}

	if _, err := api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return w, nil
}

// Write buffers one encoded log line.
func (w *CloudWatchLogsWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, types.InputLogEvent{
		Message:   aws.String(string(p)),
		Timestamp: aws.Int64(w.now().UnixMilli()),
	})
	if len(w.pending) >= logBatchSize {
		if err := w.flushLocked(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Sync sends all buffered lines.
func (w *CloudWatchLogsWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *CloudWatchLogsWriter) flushLocked() error {
	if len(w.pending) == 0 {
		return nil
	}
	batch := w.pending
	w.pending = nil

	ctx, cancel := context.WithTimeout(context.Background(), logPutTimeout)
	defer cancel()
	_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(w.group),
		LogStreamName: aws.String(w.stream),
		LogEvents:     batch,
	})
	if err != nil {
		return fmt.Errorf("failed to put log events: %w", err)
	}
	return nil
}
