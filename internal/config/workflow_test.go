package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWorkflowDefaults(t *testing.T) {
	cfg, err := DecodeWorkflow([]byte("schedule: cron(0 12 * * ? *)\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkflowName, cfg.Name)
	assert.Equal(t, "cron(0 12 * * ? *)", cfg.Schedule)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Execution.TimeoutSeconds)
	assert.Nil(t, cfg.Retry, "absent retryPolicy must not produce a retry block")
	assert.NotNil(t, cfg.Network.SubnetIDs)
	assert.Empty(t, cfg.Network.SubnetIDs)
	assert.NotNil(t, cfg.Network.SecurityGroupIDs)
	assert.True(t, cfg.Network.AssignPublicIP)
}

func TestDecodeWorkflowRetryPolicyVerbatim(t *testing.T) {
	src := `
name: nightly
schedule: cron(0 3 * * ? *)
retryPolicy:
  maxAttempts: 3
  backoffRate: 2.0
  intervalSeconds: 60
execution:
  timeoutSeconds: 900
`
	cfg, err := DecodeWorkflow([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, cfg.Retry)
	assert.Equal(t, RetryPolicy{MaxAttempts: 3, BackoffRate: 2.0, IntervalSeconds: 60}, *cfg.Retry)
	assert.Equal(t, 900, cfg.Execution.TimeoutSeconds)
}

func TestDecodeWorkflowPartialRetryPolicy(t *testing.T) {
	cfg, err := DecodeWorkflow([]byte("schedule: rate(5 minutes)\nretryPolicy:\n  backoffRate: 1.5\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Retry)
	assert.Equal(t, DefaultRetryMaxAttempts, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1.5, cfg.Retry.BackoffRate)
	assert.Equal(t, DefaultRetryIntervalSeconds, cfg.Retry.IntervalSeconds)
}

func TestDecodeWorkflowNullRetryPolicy(t *testing.T) {
	cfg, err := DecodeWorkflow([]byte("schedule: rate(1 hour)\nretryPolicy:\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Retry)
}

func TestDecodeWorkflowRejectsInvalidRetryPolicy(t *testing.T) {
	_, err := DecodeWorkflow([]byte("schedule: rate(1 hour)\nretryPolicy:\n  backoffRate: 0.5\n  intervalSeconds: 0\n"))
	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.True(t, validationErr.Has("retryPolicy.backoffRate"), "fields: %#v", validationErr.Fields)
	assert.True(t, validationErr.Has("retryPolicy.intervalSeconds"), "fields: %#v", validationErr.Fields)
}

func TestDecodeWorkflowSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"cron(0 12 * * ? *)", true},
		{"cron(15 10 ? * MON-FRI *)", true},
		{"rate(1 day)", true},
		{"rate(10 minutes)", true},
		{"0 12 * * ? *", false},
		{"cron(0 12 * *)", false},
		{"rate(0 minutes)", false},
		{"rate(5 weeks)", false},
	}
	for _, tc := range tests {
		t.Run(tc.schedule, func(t *testing.T) {
			_, err := DecodeWorkflow([]byte("schedule: \"" + tc.schedule + "\"\n"))
			if tc.valid {
				require.NoError(t, err)
				return
			}
			var validationErr ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.True(t, validationErr.Has("schedule"))
		})
	}
}

func TestDecodeWorkflowRequiresSchedule(t *testing.T) {
	_, err := DecodeWorkflow([]byte("name: nightly\n"))
	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "schedule is required")
}

func TestDecodeWorkflowRejectsZeroTimeout(t *testing.T) {
	_, err := DecodeWorkflow([]byte("schedule: rate(1 hour)\nexecution:\n  timeoutSeconds: 0\n"))
	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.True(t, validationErr.Has("execution.timeoutSeconds"), "fields: %#v", validationErr.Fields)
}

func TestDecodeWorkflowNetwork(t *testing.T) {
	src := `
schedule: rate(1 hour)
network:
  subnetIds: [subnet-a, subnet-b]
  securityGroupIds: sg-1
  assignPublicIp: false
`
	cfg, err := DecodeWorkflow([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"subnet-a", "subnet-b"}, cfg.Network.SubnetIDs)
	assert.Equal(t, []string{"sg-1"}, cfg.Network.SecurityGroupIDs)
	assert.False(t, cfg.Network.AssignPublicIP)
}

func TestDecodeWorkflowSharesTaskDocument(t *testing.T) {
	src := `
name: app
cpu: 256
memory: 512
envs:
  - A: b
schedule: cron(0 1 * * ? *)
role_arn: arn:aws:iam::123456789012:role/app
`
	cfg, err := DecodeWorkflow([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.Name)
	assert.Equal(t, "arn:aws:iam::123456789012:role/app", cfg.RoleARN)
}
