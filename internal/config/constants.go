package config

const (
	// Task definition
	DefaultCPUArchitecture    = "X86_64"
	DefaultOtelCollectorImage = "public.ecr.aws/aws-observability/aws-otel-collector:latest"

	// Health check
	DefaultHealthCheckInterval    = 30
	DefaultHealthCheckTimeout     = 5
	DefaultHealthCheckRetries     = 3
	DefaultHealthCheckStartPeriod = 10

	// Workflow
	DefaultWorkflowName   = "default-workflow"
	DefaultTimeoutSeconds = 3600

	// Retry policy, applied per field once retryPolicy is present.
	DefaultRetryMaxAttempts     = 3
	DefaultRetryBackoffRate     = 2.0
	DefaultRetryIntervalSeconds = 60
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
