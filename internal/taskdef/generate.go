// Where: internal/taskdef/generate.go
// What: Task configuration to task definition transform.
// Why: Keep the mapping a pure function so it can be tested without AWS.
package taskdef

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/poruru-code/taskgen/internal/config"
)

const (
	AppContainerName         = "app"
	OtelContainerName        = "otel-collector"
	FluentBitContainerName   = "fluent-bit"
	SecretFilesContainerName = "init-container-for-secret-files"

	sharedVolumeName = "shared-volume"
	secretFilesPath  = "/etc/secrets"
	defaultPortName  = "default"
)

// Overrides are per-deployment values supplied on the command line rather than in YAML.
type Overrides struct {
	Cluster   string
	Region    string
	Registry  string
	ImageName string
	Tag       string
}

func (o Overrides) validate() error {
	if strings.TrimSpace(o.Cluster) == "" {
		return fmt.Errorf("cluster name is required")
	}
	if strings.TrimSpace(o.Region) == "" {
		return fmt.Errorf("region is required")
	}
	return nil
}

func (o Overrides) logGroup(name string) string {
	return fmt.Sprintf("/ecs/%s/%s", strings.TrimSpace(o.Cluster), name)
}

// Family returns the task definition family for a task name in a cluster.
func Family(cluster, name string) string {
	return fmt.Sprintf("%s_%s", strings.TrimSpace(cluster), name)
}

// Generate maps a validated task configuration onto a task definition document.
func Generate(cfg config.TaskConfig, ov Overrides) (Document, error) {
	if err := ov.validate(); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(cfg.Name) == "" || cfg.CPU <= 0 || cfg.MemoryMiB <= 0 {
		return Document{}, fmt.Errorf("task configuration requires name, cpu and memory")
	}
	image, err := ImageURI(ov.Registry, ov.ImageName, ov.Tag)
	if err != nil {
		return Document{}, err
	}

	arch := cfg.CPUArch
	if arch == "" {
		arch = config.DefaultCPUArchitecture
	}

	app, err := appContainer(cfg, ov, image)
	if err != nil {
		return Document{}, err
	}

	var containers []ContainerDefinition
	if len(cfg.SecretFiles) > 0 {
		containers = append(containers, secretFilesContainer(cfg, ov))
	}
	containers = append(containers, app)
	if cfg.FluentBitImage != "" {
		containers = append(containers, fluentBitContainer(cfg, ov))
	}
	if cfg.IncludeOtelCollector {
		containers = append(containers, otelContainer(cfg, ov))
	}

	doc := Document{
		Family:               Family(ov.Cluster, cfg.Name),
		ContainerDefinitions: containers,
		CPU:                  strconv.Itoa(cfg.CPU),
		Memory:               strconv.Itoa(cfg.MemoryMiB),
		RuntimePlatform: RuntimePlatform{
			CPUArchitecture:       ecstypes.CPUArchitecture(arch),
			OperatingSystemFamily: ecstypes.OSFamilyLinux,
		},
		TaskRoleARN:             cfg.RoleARN,
		ExecutionRoleARN:        cfg.RoleARN,
		NetworkMode:             ecstypes.NetworkModeAwsvpc,
		RequiresCompatibilities: []ecstypes.Compatibility{ecstypes.CompatibilityFargate},
	}
	if len(cfg.SecretFiles) > 0 {
		doc.Volumes = []Volume{{Name: sharedVolumeName, Host: &HostVolume{}}}
	}
	return doc, nil
}

func appContainer(cfg config.TaskConfig, ov Overrides, image string) (ContainerDefinition, error) {
	container := ContainerDefinition{
		Name:        AppContainerName,
		Image:       image,
		Essential:   true,
		EntryPoint:  cfg.EntryPoint,
		Command:     cfg.Command,
		Environment: environment(cfg.Env),
	}

	secrets, err := secretRefs(cfg.Secrets)
	if err != nil {
		return ContainerDefinition{}, err
	}
	container.Secrets = secrets

	if cfg.FluentBitImage != "" {
		container.LogConfiguration = &LogConfiguration{
			LogDriver: ecstypes.LogDriverAwsfirelens,
			Options:   map[string]string{},
		}
	} else {
		container.LogConfiguration = awslogs(ov, cfg.Name, "/default")
	}

	if hc := cfg.HealthCheck; hc != nil && len(hc.Command) > 0 {
		container.HealthCheck = &HealthCheck{
			Command:     append([]string(nil), hc.Command...),
			Interval:    hc.Interval,
			Timeout:     hc.Timeout,
			Retries:     hc.Retries,
			StartPeriod: hc.StartPeriod,
		}
	}

	container.PortMappings = portMappings(cfg)

	if len(cfg.SecretFiles) > 0 {
		container.MountPoints = []MountPoint{{SourceVolume: sharedVolumeName, ContainerPath: secretFilesPath}}
		container.DependsOn = append(container.DependsOn, ContainerDependency{
			ContainerName: SecretFilesContainerName,
			Condition:     ecstypes.ContainerConditionSuccess,
		})
	}
	if cfg.FluentBitImage != "" {
		container.DependsOn = append(container.DependsOn, ContainerDependency{
			ContainerName: FluentBitContainerName,
			Condition:     ecstypes.ContainerConditionStart,
		})
	}
	return container, nil
}

func environment(values []config.KeyValue) []KeyValuePair {
	out := make([]KeyValuePair, 0, len(values))
	for _, kv := range values {
		out = append(out, KeyValuePair{Name: kv.Name, Value: kv.Value})
	}
	return out
}

func secretRefs(refs []config.SecretRef) ([]Secret, error) {
	out := make([]Secret, 0, len(refs))
	for _, ref := range refs {
		valueFrom, err := SecretValueFrom(ref.Name, ref.ARN)
		if err != nil {
			return nil, err
		}
		out = append(out, Secret{Name: ref.Name, ValueFrom: valueFrom})
	}
	return out, nil
}

// SecretValueFrom builds the valueFrom reference for an injected secret.
// A bare Secrets Manager ARN selects the JSON key named after the variable;
// ARNs that already select a key, and SSM parameter ARNs, pass through.
func SecretValueFrom(name, ref string) (string, error) {
	parsed, err := arn.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", name, err)
	}
	if parsed.Service != "secretsmanager" {
		return ref, nil
	}
	if strings.Count(parsed.Resource, ":") > 1 {
		return ref, nil
	}
	return fmt.Sprintf("%s:%s::", ref, name), nil
}

func portMappings(cfg config.TaskConfig) []PortMapping {
	var out []PortMapping
	if cfg.Port > 0 {
		out = append(out, PortMapping{
			Name:          defaultPortName,
			ContainerPort: cfg.Port,
			HostPort:      cfg.Port,
			Protocol:      ecstypes.TransportProtocolTcp,
			AppProtocol:   ecstypes.ApplicationProtocolHttp,
		})
	}
	for _, port := range cfg.AdditionalPorts {
		mapping := PortMapping{
			Name:          port.Name,
			ContainerPort: port.Port,
			HostPort:      port.Port,
			Protocol:      ecstypes.TransportProtocol(port.Protocol),
		}
		if mapping.Protocol == "" {
			mapping.Protocol = ecstypes.TransportProtocolTcp
		}
		if mapping.Protocol == ecstypes.TransportProtocolTcp {
			mapping.AppProtocol = ecstypes.ApplicationProtocolHttp
		}
		out = append(out, mapping)
	}
	return out
}

func awslogs(ov Overrides, name, streamPrefix string) *LogConfiguration {
	options := map[string]string{
		"awslogs-group":  ov.logGroup(name),
		"awslogs-region": strings.TrimSpace(ov.Region),
	}
	if streamPrefix != "" {
		options["awslogs-stream-prefix"] = streamPrefix
	}
	return &LogConfiguration{LogDriver: ecstypes.LogDriverAwslogs, Options: options}
}
