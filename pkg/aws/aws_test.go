package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sns.PublishOutput{}, f.err
}

func TestSNSClientPublish(t *testing.T) {
	api := &fakeSNS{}
	client := &SNSClient{client: api}

	ctx := WithEventType(context.Background(), "order_created")
	require.NoError(t, client.Publish(ctx, "arn:aws:sns:us-east-1:000000000000:orders", []byte(`{"id":"o1"}`)))

	require.Len(t, api.inputs, 1)
	assert.Equal(t, `{"id":"o1"}`, *api.inputs[0].Message)
	assert.Equal(t, "order_created", *api.inputs[0].MessageAttributes["event_type"].StringValue)
}

func TestSNSClientPublishErrors(t *testing.T) {
	client := &SNSClient{client: &fakeSNS{err: errors.New("throttled")}}

	assert.Error(t, client.Publish(context.Background(), "", []byte("x")))
	assert.ErrorContains(t, client.Publish(context.Background(), "arn", []byte("x")), "throttled")
}

type fakeSecrets struct {
	calls int
	value *string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestSecretsClientCaches(t *testing.T) {
	value := `{"DATABASE_URL":"postgres://x"}`
	api := &fakeSecrets{value: &value}
	client := newSecretsClient(api)

	for i := 0; i < 3; i++ {
		got, err := client.GetSecret(context.Background(), "order-service")
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
	assert.Equal(t, 1, api.calls)
}

func TestSecretsClientEmptyValue(t *testing.T) {
	client := newSecretsClient(&fakeSecrets{})
	_, err := client.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClientDisabledIsNoop(t *testing.T) {
	client, err := NewMetricsClient(context.Background(), "", false)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.NoError(t, client.RecordCount(context.Background(), MetricOrdersCreated, nil))

	var nilClient *MetricsClient
	assert.False(t, nilClient.IsEnabled())
	assert.NoError(t, nilClient.RecordLatency(context.Background(), MetricHTTPLatency, time.Second, nil))
}

func TestMetricsClientSortsDimensions(t *testing.T) {
	api := &fakeCloudWatch{}
	client := &MetricsClient{client: api, namespace: "Test", enabled: true}

	err := client.RecordCount(context.Background(), MetricInventoryDeducted, map[string]string{"Service": "inventory", "Method": "POST"})
	require.NoError(t, err)

	require.Len(t, api.inputs, 1)
	dims := api.inputs[0].MetricData[0].Dimensions
	require.Len(t, dims, 2)
	assert.Equal(t, "Method", *dims[0].Name)
	assert.Equal(t, "Service", *dims[1].Name)
	assert.Equal(t, "Test", *api.inputs[0].Namespace)
}

type fakeLogs struct {
	groupErr error
	groups   int
	streams  []string
	batches  [][]string
}

func (f *fakeLogs) CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	f.groups++
	return &cloudwatchlogs.CreateLogGroupOutput{}, f.groupErr
}

func (f *fakeLogs) PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error) {
	return &cloudwatchlogs.PutRetentionPolicyOutput{}, nil
}

func (f *fakeLogs) CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.streams = append(f.streams, *params.LogStreamName)
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogs) PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	var batch []string
	for _, e := range params.LogEvents {
		batch = append(batch, *e.Message)
	}
	f.batches = append(f.batches, batch)
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func TestCloudWatchLogsWriterBatches(t *testing.T) {
	api := &fakeLogs{}
	w, err := newCloudWatchLogsWriter(context.Background(), api, "/test", "order-service-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"order-service-1"}, api.streams)

	_, err = w.Write([]byte(`{"msg":"one"}`))
	require.NoError(t, err)
	assert.Empty(t, api.batches)

	require.NoError(t, w.Sync())
	require.Len(t, api.batches, 1)
	assert.Equal(t, []string{`{"msg":"one"}`}, api.batches[0])

	for i := 0; i < logBatchSize; i++ {
		_, err = w.Write([]byte("line"))
		require.NoError(t, err)
	}
	require.Len(t, api.batches, 2)
	assert.Len(t, api.batches[1], logBatchSize)

	require.NoError(t, w.Sync())
	assert.Len(t, api.batches, 2)
}

func TestCloudWatchLogsWriterExistingGroup(t *testing.T) {
	api := &fakeLogs{groupErr: &logstypes.ResourceAlreadyExistsException{}}
	_, err := newCloudWatchLogsWriter(context.Background(), api, "/test", "s")
	require.NoError(t, err)
	assert.Equal(t, 1, api.groups)

	api = &fakeLogs{groupErr: errors.New("access denied")}
	_, err = newCloudWatchLogsWriter(context.Background(), api, "/test", "s")
	assert.ErrorContains(t, err, "access denied")
}
