package taskdef

import (
	"strings"

	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/poruru-code/taskgen/internal/config"
)

const (
	secretFilesImage = "amazon/aws-cli"

	// Fetches every id in SECRET_FILES into /etc/secrets/<id>; fails the task on the first miss.
	secretFilesScript = "for secret in ${SECRET_FILES//,/ }; do " +
		"echo \"Fetching $secret...\"; " +
		"aws secretsmanager get-secret-value --secret-id $secret --region $AWS_REGION --query SecretString --output text > /etc/secrets/$secret; " +
		"if [ $? -eq 0 ] && [ -s /etc/secrets/$secret ]; then " +
		"echo \"Saved $secret to /etc/secrets/$secret\"; " +
		"else echo \"Failed to save $secret\" >&2; exit 1; " +
		"fi; " +
		"done"
)

func otelContainer(cfg config.TaskConfig, ov Overrides) ContainerDefinition {
	image := cfg.OtelCollectorImage
	if image == "" {
		image = config.DefaultOtelCollectorImage
	}
	return ContainerDefinition{
		Name:        OtelContainerName,
		Image:       image,
		Essential:   false,
		Command:     []string{"--config", "env:SSM_CONFIG"},
		Environment: []KeyValuePair{},
		Secrets:     []Secret{},
		PortMappings: []PortMapping{
			{
				Name:          "otel-collector-4317-tcp",
				ContainerPort: 4317,
				HostPort:      4317,
				Protocol:      ecstypes.TransportProtocolTcp,
				AppProtocol:   ecstypes.ApplicationProtocolGrpc,
			},
			{
				Name:          "otel-collector-4318-tcp",
				ContainerPort: 4318,
				HostPort:      4318,
				Protocol:      ecstypes.TransportProtocolTcp,
			},
		},
		LogConfiguration: awslogs(ov, cfg.Name, "otel-collector"),
	}
}

func fluentBitContainer(cfg config.TaskConfig, ov Overrides) ContainerDefinition {
	return ContainerDefinition{
		Name:      FluentBitContainerName,
		Image:     registryImage(ov.Registry, cfg.FluentBitImage),
		Essential: false,
		Environment: []KeyValuePair{
			{Name: "SERVICE_NAME", Value: cfg.Name},
		},
		Secrets:          []Secret{},
		LogConfiguration: awslogs(ov, cfg.Name, "fluentbit"),
		FirelensConfiguration: &FirelensConfiguration{
			Type: ecstypes.FirelensConfigurationTypeFluentbit,
			Options: map[string]string{
				"config-file-type":        "file",
				"config-file-value":       "/extra.conf",
				"enable-ecs-log-metadata": "true",
			},
		},
	}
}

func secretFilesContainer(cfg config.TaskConfig, ov Overrides) ContainerDefinition {
	return ContainerDefinition{
		Name:       SecretFilesContainerName,
		Image:      secretFilesImage,
		Essential:  false,
		EntryPoint: []string{"/bin/sh"},
		Command:    []string{"-c", secretFilesScript},
		Environment: []KeyValuePair{
			{Name: "SECRET_FILES", Value: strings.Join(cfg.SecretFiles, ",")},
			{Name: "AWS_REGION", Value: strings.TrimSpace(ov.Region)},
		},
		Secrets:          []Secret{},
		MountPoints:      []MountPoint{{SourceVolume: sharedVolumeName, ContainerPath: secretFilesPath}},
		LogConfiguration: awslogs(ov, cfg.Name, "ssm-file-downloader"),
	}
}
