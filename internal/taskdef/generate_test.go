package taskdef

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poruru-code/taskgen/internal/config"
)

func testOverrides() Overrides {
	return Overrides{
		Cluster:   "prod",
		Region:    "us-east-1",
		Registry:  "123456789012.dkr.ecr.us-east-1.amazonaws.com",
		ImageName: "app",
		Tag:       "v1.2.3",
	}
}

func decodeTask(t *testing.T, src string) config.TaskConfig {
	t.Helper()
	cfg, err := config.DecodeTask([]byte(src))
	require.NoError(t, err)
	return cfg
}

func TestGenerateExampleDocument(t *testing.T) {
	cfg := decodeTask(t, "name: app\ncpu: 512\nmemory: 1024\ncpu_arch: ARM64\n")

	doc, err := Generate(cfg, testOverrides())
	require.NoError(t, err)

	assert.Equal(t, "512", doc.CPU)
	assert.Equal(t, "1024", doc.Memory)
	assert.Equal(t, "ARM64", string(doc.RuntimePlatform.CPUArchitecture))
	assert.Equal(t, "LINUX", string(doc.RuntimePlatform.OperatingSystemFamily))
	assert.Equal(t, "prod_app", doc.Family)
	assert.Equal(t, "awsvpc", string(doc.NetworkMode))
	require.Len(t, doc.RequiresCompatibilities, 1)
	assert.Equal(t, "FARGATE", string(doc.RequiresCompatibilities[0]))

	require.Len(t, doc.ContainerDefinitions, 1)
	app := doc.ContainerDefinitions[0]
	assert.Equal(t, AppContainerName, app.Name)
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/app:v1.2.3", app.Image)
	assert.True(t, app.Essential)
	require.NotNil(t, app.LogConfiguration)
	assert.Equal(t, "awslogs", string(app.LogConfiguration.LogDriver))
	assert.Equal(t, map[string]string{
		"awslogs-group":         "/ecs/prod/app",
		"awslogs-region":        "us-east-1",
		"awslogs-stream-prefix": "/default",
	}, app.LogConfiguration.Options)
}

func TestGenerateDefaultsArchitecture(t *testing.T) {
	doc, err := Generate(config.TaskConfig{Name: "app", CPU: 256, MemoryMiB: 512}, testOverrides())
	require.NoError(t, err)
	assert.Equal(t, "X86_64", string(doc.RuntimePlatform.CPUArchitecture))
}

func TestGenerateSidecarIffFlag(t *testing.T) {
	for _, include := range []bool{false, true} {
		cfg := config.TaskConfig{Name: "app", CPU: 256, MemoryMiB: 512, IncludeOtelCollector: include}
		doc, err := Generate(cfg, testOverrides())
		require.NoError(t, err)

		primaries := 0
		for _, container := range doc.ContainerDefinitions {
			if container.Essential {
				primaries++
			}
		}
		assert.Equal(t, 1, primaries)

		otel, ok := doc.Container(OtelContainerName)
		assert.Equal(t, include, ok)
		if include {
			assert.Len(t, doc.ContainerDefinitions, 2)
			assert.Equal(t, config.DefaultOtelCollectorImage, otel.Image)
			assert.False(t, otel.Essential)
			assert.Equal(t, []string{"--config", "env:SSM_CONFIG"}, otel.Command)
			require.Len(t, otel.PortMappings, 2)
			assert.Equal(t, 4317, otel.PortMappings[0].ContainerPort)
			assert.Equal(t, "grpc", string(otel.PortMappings[0].AppProtocol))
		} else {
			assert.Len(t, doc.ContainerDefinitions, 1)
		}
	}
}

func TestGenerateEmptyEnvironmentIsEmptyList(t *testing.T) {
	cfg := decodeTask(t, "name: app\ncpu: 256\nmemory: 512\nenv: []\n")
	doc, err := Generate(cfg, testOverrides())
	require.NoError(t, err)

	data, err := doc.MarshalIndent()
	require.NoError(t, err)

	var decoded struct {
		ContainerDefinitions []map[string]json.RawMessage `json:"containerDefinitions"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.ContainerDefinitions, 1)
	env, ok := decoded.ContainerDefinitions[0]["environment"]
	require.True(t, ok, "environment must not be omitted")
	assert.JSONEq(t, "[]", string(env))
	secrets, ok := decoded.ContainerDefinitions[0]["secrets"]
	require.True(t, ok, "secrets must not be omitted")
	assert.JSONEq(t, "[]", string(secrets))
}

func TestGenerateEnvironmentAndSecrets(t *testing.T) {
	src := `
name: app
cpu: 256
memory: 512
envs:
  - LOG_LEVEL: debug
  - WORKERS: 4
secrets:
  - DB_PASSWORD: arn:aws:secretsmanager:us-east-1:123456789012:secret:app/db-AbCdEf
  - API_TOKEN: arn:aws:ssm:us-east-1:123456789012:parameter/app/token
`
	doc, err := Generate(decodeTask(t, src), testOverrides())
	require.NoError(t, err)

	app, ok := doc.Container(AppContainerName)
	require.True(t, ok)
	assert.Equal(t, []KeyValuePair{{Name: "LOG_LEVEL", Value: "debug"}, {Name: "WORKERS", Value: "4"}}, app.Environment)
	assert.Equal(t, []Secret{
		{Name: "DB_PASSWORD", ValueFrom: "arn:aws:secretsmanager:us-east-1:123456789012:secret:app/db-AbCdEf:DB_PASSWORD::"},
		{Name: "API_TOKEN", ValueFrom: "arn:aws:ssm:us-east-1:123456789012:parameter/app/token"},
	}, app.Secrets)
}

func TestSecretValueFrom(t *testing.T) {
	got, err := SecretValueFrom("KEY", "arn:aws:secretsmanager:eu-west-1:123456789012:secret:shared-XyZ123:other::")
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:secretsmanager:eu-west-1:123456789012:secret:shared-XyZ123:other::", got)

	_, err = SecretValueFrom("KEY", "plain")
	assert.Error(t, err)
}

func TestGenerateRoleARN(t *testing.T) {
	role := "arn:aws:iam::123456789012:role/app"
	doc, err := Generate(config.TaskConfig{Name: "app", CPU: 256, MemoryMiB: 512, RoleARN: role}, testOverrides())
	require.NoError(t, err)
	assert.Equal(t, role, doc.TaskRoleARN)
	assert.Equal(t, role, doc.ExecutionRoleARN)
}

func TestGenerateFluentBitRoutesLogs(t *testing.T) {
	cfg := decodeTask(t, "name: app\ncpu: 256\nmemory: 512\nfluent_bit_collector:\n  image_name: fluent-bit:2.1\n")
	doc, err := Generate(cfg, testOverrides())
	require.NoError(t, err)

	require.Len(t, doc.ContainerDefinitions, 2)
	assert.Equal(t, AppContainerName, doc.ContainerDefinitions[0].Name)
	assert.Equal(t, FluentBitContainerName, doc.ContainerDefinitions[1].Name)

	app := doc.ContainerDefinitions[0]
	assert.Equal(t, "awsfirelens", string(app.LogConfiguration.LogDriver))
	assert.Empty(t, app.LogConfiguration.Options)
	assert.Equal(t, []ContainerDependency{{ContainerName: FluentBitContainerName, Condition: "START"}}, app.DependsOn)

	fluentBit := doc.ContainerDefinitions[1]
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/fluent-bit:2.1", fluentBit.Image)
	require.NotNil(t, fluentBit.FirelensConfiguration)
	assert.Equal(t, "fluentbit", string(fluentBit.FirelensConfiguration.Type))
	assert.Equal(t, []KeyValuePair{{Name: "SERVICE_NAME", Value: "app"}}, fluentBit.Environment)
}

func TestGenerateSecretFiles(t *testing.T) {
	cfg := decodeTask(t, "name: app\ncpu: 256\nmemory: 512\nsecret_files:\n  - app/tls-cert\n  - app/tls-key\n")
	doc, err := Generate(cfg, testOverrides())
	require.NoError(t, err)

	require.Len(t, doc.ContainerDefinitions, 2)
	initContainer := doc.ContainerDefinitions[0]
	assert.Equal(t, SecretFilesContainerName, initContainer.Name)
	assert.False(t, initContainer.Essential)
	assert.Contains(t, initContainer.Environment, KeyValuePair{Name: "SECRET_FILES", Value: "app/tls-cert,app/tls-key"})
	assert.Contains(t, initContainer.Environment, KeyValuePair{Name: "AWS_REGION", Value: "us-east-1"})

	app := doc.ContainerDefinitions[1]
	assert.Equal(t, []MountPoint{{SourceVolume: "shared-volume", ContainerPath: "/etc/secrets"}}, app.MountPoints)
	assert.Equal(t, []ContainerDependency{{ContainerName: SecretFilesContainerName, Condition: "SUCCESS"}}, app.DependsOn)

	require.Len(t, doc.Volumes, 1)
	assert.Equal(t, "shared-volume", doc.Volumes[0].Name)

	data, err := doc.MarshalIndent()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"host": {}`)
}

func TestGenerateHealthCheckAndPorts(t *testing.T) {
	src := `
name: app
cpu: 256
memory: 512
command: ["serve", "--port", "8080"]
entrypoint: /docker-entrypoint.sh
port: 8080
additional_ports:
  - metrics: 9090
  - statsd: 8125/udp
health_check:
  command: curl -f http://localhost:8080/health
`
	doc, err := Generate(decodeTask(t, src), testOverrides())
	require.NoError(t, err)

	app, ok := doc.Container(AppContainerName)
	require.True(t, ok)
	assert.Equal(t, []string{"serve", "--port", "8080"}, app.Command)
	assert.Equal(t, []string{"/docker-entrypoint.sh"}, app.EntryPoint)
	require.NotNil(t, app.HealthCheck)
	assert.Equal(t, []string{"CMD-SHELL", "curl -f http://localhost:8080/health"}, app.HealthCheck.Command)
	assert.Equal(t, 30, app.HealthCheck.Interval)

	assert.Equal(t, []PortMapping{
		{Name: "default", ContainerPort: 8080, HostPort: 8080, Protocol: "tcp", AppProtocol: "http"},
		{Name: "metrics", ContainerPort: 9090, HostPort: 9090, Protocol: "tcp", AppProtocol: "http"},
		{Name: "statsd", ContainerPort: 8125, HostPort: 8125, Protocol: "udp"},
	}, app.PortMappings)
}

func TestGenerateContainerOrder(t *testing.T) {
	src := `
name: app
cpu: 256
memory: 512
include_otel_collector: true
fluent_bit_collector:
  image_name: fluent-bit
secret_files: [one]
`
	doc, err := Generate(decodeTask(t, src), testOverrides())
	require.NoError(t, err)

	var names []string
	for _, container := range doc.ContainerDefinitions {
		names = append(names, container.Name)
	}
	assert.Equal(t, []string{SecretFilesContainerName, AppContainerName, FluentBitContainerName, OtelContainerName}, names)
}

func TestGenerateRejectsMissingInputs(t *testing.T) {
	valid := config.TaskConfig{Name: "app", CPU: 256, MemoryMiB: 512}

	_, err := Generate(config.TaskConfig{CPU: 256, MemoryMiB: 512}, testOverrides())
	assert.Error(t, err)

	ov := testOverrides()
	ov.Cluster = ""
	_, err = Generate(valid, ov)
	assert.ErrorContains(t, err, "cluster")

	ov = testOverrides()
	ov.Region = " "
	_, err = Generate(valid, ov)
	assert.ErrorContains(t, err, "region")

	ov = testOverrides()
	ov.ImageName = ""
	_, err = Generate(valid, ov)
	assert.ErrorContains(t, err, "image name")
}
