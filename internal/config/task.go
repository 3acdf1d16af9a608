package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/poruru-code/taskgen/internal/yamlshape"
)

const taskKind = "task configuration"

// TaskConfig is the normalized task section of a deployment configuration.
// Lists are never nil so that generated documents carry empty lists instead of nulls.
type TaskConfig struct {
	Name                 string       `yaml:"name" validate:"required"`
	CPU                  int          `yaml:"cpu" validate:"required,gt=0"`
	MemoryMiB            int          `yaml:"memory" validate:"required,gt=0"`
	CPUArch              string       `yaml:"cpu_arch" validate:"cpuarch"`
	RoleARN              string       `yaml:"role_arn" validate:"omitempty,awsarn"`
	Env                  []KeyValue   `yaml:"env"`
	Secrets              []SecretRef  `yaml:"secrets" validate:"dive"`
	IncludeOtelCollector bool         `yaml:"include_otel_collector"`
	OtelCollectorImage   string       `yaml:"otel_collector_image"`
	FluentBitImage       string       `yaml:"fluent_bit_image"`
	SecretFiles          []string     `yaml:"secret_files"`
	Command              []string     `yaml:"command"`
	EntryPoint           []string     `yaml:"entrypoint"`
	HealthCheck          *HealthCheck `yaml:"health_check"`
	Port                 int          `yaml:"port" validate:"omitempty,min=1,max=65535"`
	AdditionalPorts      []NamedPort  `yaml:"additional_ports" validate:"dive"`
	ReplicaCount         string       `yaml:"replica_count"`
}

type KeyValue struct {
	Name  string
	Value string
}

// SecretRef maps an injected variable name to a secret store ARN.
type SecretRef struct {
	Name string `yaml:"name" validate:"required"`
	ARN  string `yaml:"arn" validate:"awsarn"`
}

type HealthCheck struct {
	Command     []string `yaml:"command"`
	Interval    int      `yaml:"interval" validate:"gt=0"`
	Timeout     int      `yaml:"timeout" validate:"gt=0"`
	Retries     int      `yaml:"retries" validate:"gte=0"`
	StartPeriod int      `yaml:"start_period" validate:"gte=0"`
}

type NamedPort struct {
	Name     string `yaml:"name" validate:"required"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	Protocol string `yaml:"protocol" validate:"oneof=tcp udp"`
}

type rawTask struct {
	Name                 string          `yaml:"name"`
	CPU                  yaml.Node       `yaml:"cpu"`
	Memory               yaml.Node       `yaml:"memory"`
	CPUArch              string          `yaml:"cpu_arch"`
	RoleARN              string          `yaml:"role_arn"`
	Env                  yaml.Node       `yaml:"env"`
	Envs                 yaml.Node       `yaml:"envs"`
	Secrets              yaml.Node       `yaml:"secrets"`
	IncludeOtelCollector bool            `yaml:"include_otel_collector"`
	OtelCollector        yaml.Node       `yaml:"otel_collector"`
	FluentBitCollector   yaml.Node       `yaml:"fluent_bit_collector"`
	SecretFiles          yaml.Node       `yaml:"secret_files"`
	Command              yaml.Node       `yaml:"command"`
	Entrypoint           yaml.Node       `yaml:"entrypoint"`
	HealthCheck          *rawHealthCheck `yaml:"health_check"`
	Port                 yaml.Node       `yaml:"port"`
	AdditionalPorts      yaml.Node       `yaml:"additional_ports"`
	ReplicaCount         yaml.Node       `yaml:"replica_count"`
}

type rawHealthCheck struct {
	Command     yaml.Node `yaml:"command"`
	Interval    *int      `yaml:"interval"`
	Timeout     *int      `yaml:"timeout"`
	Retries     *int      `yaml:"retries"`
	StartPeriod *int      `yaml:"start_period"`
}

// LoadTask reads and validates the task section of a YAML configuration file.
func LoadTask(path string) (TaskConfig, error) {
	data, err := readConfig(path)
	if err != nil {
		return TaskConfig{}, err
	}
	return DecodeTask(data)
}

// DecodeTask decodes, normalizes and validates a task configuration document.
func DecodeTask(data []byte) (TaskConfig, error) {
	var raw rawTask
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return TaskConfig{}, fmt.Errorf("decode %s: %w", taskKind, err)
	}
	cfg, err := raw.normalize()
	if err != nil {
		return TaskConfig{}, err
	}
	if err := validateStruct(taskKind, cfg); err != nil {
		return TaskConfig{}, err
	}
	return cfg, nil
}

func (r rawTask) normalize() (TaskConfig, error) {
	cfg := TaskConfig{
		Name:                 strings.TrimSpace(r.Name),
		CPUArch:              strings.ToUpper(strings.TrimSpace(r.CPUArch)),
		RoleARN:              strings.TrimSpace(r.RoleARN),
		IncludeOtelCollector: r.IncludeOtelCollector,
	}
	if cfg.CPUArch == "" {
		cfg.CPUArch = DefaultCPUArchitecture
	}

	var err error
	if cfg.CPU, err = intScalar(&r.CPU, "cpu"); err != nil {
		return TaskConfig{}, err
	}
	if cfg.MemoryMiB, err = memoryMiB(&r.Memory); err != nil {
		return TaskConfig{}, err
	}
	if cfg.Port, err = intScalar(&r.Port, "port"); err != nil {
		return TaskConfig{}, err
	}
	if cfg.ReplicaCount, err = yamlshape.Scalar(&r.ReplicaCount); err != nil {
		return TaskConfig{}, fieldError(taskKind, "replica_count", "must be a scalar: %v", err)
	}

	cfg.Env = []KeyValue{}
	for _, field := range []struct {
		name string
		node *yaml.Node
	}{{"env", &r.Env}, {"envs", &r.Envs}} {
		pairs, err := keyValues(field.node, field.name)
		if err != nil {
			return TaskConfig{}, err
		}
		cfg.Env = append(cfg.Env, pairs...)
	}

	if cfg.Secrets, err = secretRefs(&r.Secrets); err != nil {
		return TaskConfig{}, err
	}
	if cfg.OtelCollectorImage, err = collectorImage(&r.OtelCollector, "otel_collector", DefaultOtelCollectorImage); err != nil {
		return TaskConfig{}, err
	}
	if cfg.OtelCollectorImage != "" {
		cfg.IncludeOtelCollector = true
	} else if cfg.IncludeOtelCollector {
		cfg.OtelCollectorImage = DefaultOtelCollectorImage
	}
	if cfg.FluentBitImage, err = collectorImage(&r.FluentBitCollector, "fluent_bit_collector", ""); err != nil {
		return TaskConfig{}, err
	}

	if cfg.SecretFiles, err = stringList(&r.SecretFiles, "secret_files"); err != nil {
		return TaskConfig{}, err
	}
	if cfg.Command, err = stringList(&r.Command, "command"); err != nil {
		return TaskConfig{}, err
	}
	if cfg.EntryPoint, err = stringList(&r.Entrypoint, "entrypoint"); err != nil {
		return TaskConfig{}, err
	}
	if cfg.HealthCheck, err = r.HealthCheck.normalize(); err != nil {
		return TaskConfig{}, err
	}
	if cfg.AdditionalPorts, err = namedPorts(&r.AdditionalPorts); err != nil {
		return TaskConfig{}, err
	}
	return cfg, nil
}

func (r *rawHealthCheck) normalize() (*HealthCheck, error) {
	if r == nil {
		return nil, nil
	}
	command, err := stringList(&r.Command, "health_check.command")
	if err != nil {
		return nil, err
	}
	command = healthCheckCommand(command)
	if len(command) == 0 {
		return nil, nil
	}
	return &HealthCheck{
		Command:     command,
		Interval:    intOr(r.Interval, DefaultHealthCheckInterval),
		Timeout:     intOr(r.Timeout, DefaultHealthCheckTimeout),
		Retries:     intOr(r.Retries, DefaultHealthCheckRetries),
		StartPeriod: intOr(r.StartPeriod, DefaultHealthCheckStartPeriod),
	}, nil
}

// healthCheckCommand wraps a single shell string in CMD-SHELL; explicit CMD forms pass through.
func healthCheckCommand(command []string) []string {
	var parts []string
	for _, part := range command {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	switch {
	case len(parts) == 0:
		return nil
	case parts[0] == "CMD" || parts[0] == "CMD-SHELL":
		return parts
	case len(parts) == 1:
		return []string{"CMD-SHELL", parts[0]}
	default:
		return append([]string{"CMD"}, parts...)
	}
}

func keyValues(node *yaml.Node, field string) ([]KeyValue, error) {
	pairs, err := yamlshape.Pairs(node)
	if err != nil {
		return nil, fieldError(taskKind, field, "must be a list of NAME: value entries: %v", err)
	}
	out := make([]KeyValue, 0, len(pairs))
	for _, pair := range pairs {
		value, err := yamlshape.Scalar(pair.Value)
		if err != nil {
			return nil, fieldError(taskKind, field+"."+pair.Key, "must be a scalar: %v", err)
		}
		out = append(out, KeyValue{Name: pair.Key, Value: value})
	}
	return out, nil
}

func secretRefs(node *yaml.Node) ([]SecretRef, error) {
	values, err := keyValues(node, "secrets")
	if err != nil {
		return nil, err
	}
	out := make([]SecretRef, 0, len(values))
	for _, kv := range values {
		out = append(out, SecretRef{Name: strings.TrimSpace(kv.Name), ARN: strings.TrimSpace(kv.Value)})
	}
	return out, nil
}

// collectorImage resolves a sidecar block of the form {image_name: ...}.
// A null block disables the sidecar; an empty image falls back to fallback.
func collectorImage(node *yaml.Node, field, fallback string) (string, error) {
	if yamlshape.IsNull(node) {
		return "", nil
	}
	if node.Kind != yaml.MappingNode {
		return "", fieldError(taskKind, field, "must be a mapping")
	}
	var block struct {
		ImageName string `yaml:"image_name"`
	}
	if err := node.Decode(&block); err != nil {
		return "", fieldError(taskKind, field, "is malformed: %v", err)
	}
	image := strings.TrimSpace(block.ImageName)
	if image == "" {
		return fallback, nil
	}
	return image, nil
}

func stringList(node *yaml.Node, field string) ([]string, error) {
	values, err := yamlshape.Strings(node)
	if err != nil {
		return nil, fieldError(taskKind, field, "must be a string list: %v", err)
	}
	return values, nil
}

func namedPorts(node *yaml.Node) ([]NamedPort, error) {
	pairs, err := yamlshape.Pairs(node)
	if err != nil {
		return nil, fieldError(taskKind, "additional_ports", "must be a list of name: port entries: %v", err)
	}
	out := make([]NamedPort, 0, len(pairs))
	seen := map[string]bool{"default": true}
	for _, pair := range pairs {
		spec, err := yamlshape.Scalar(pair.Value)
		if err != nil {
			return nil, fieldError(taskKind, "additional_ports."+pair.Key, "must be a scalar: %v", err)
		}
		port, err := parsePortSpec(spec)
		if err != nil {
			return nil, fieldError(taskKind, "additional_ports."+pair.Key, "%v", err)
		}
		if seen[pair.Key] {
			return nil, fieldError(taskKind, "additional_ports."+pair.Key, "is declared more than once")
		}
		seen[pair.Key] = true
		port.Name = pair.Key
		out = append(out, port)
	}
	return out, nil
}

// parsePortSpec accepts "8080" or "8080/udp".
func parsePortSpec(spec string) (NamedPort, error) {
	proto, rawPort := nat.SplitProtoPort(strings.TrimSpace(spec))
	if rawPort == "" {
		return NamedPort{}, fmt.Errorf("invalid port spec %q", spec)
	}
	port, err := nat.ParsePort(rawPort)
	if err != nil {
		return NamedPort{}, fmt.Errorf("invalid port spec %q: %w", spec, err)
	}
	return NamedPort{Port: port, Protocol: strings.ToLower(proto)}, nil
}

func intScalar(node *yaml.Node, field string) (int, error) {
	value, err := yamlshape.Scalar(node)
	if err != nil {
		return 0, fieldError(taskKind, field, "must be an integer: %v", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fieldError(taskKind, field, "must be an integer, got %q", value)
	}
	return n, nil
}

// memoryMiB accepts an integer number of MiB or a size string such as "2GiB".
func memoryMiB(node *yaml.Node) (int, error) {
	value, err := yamlshape.Scalar(node)
	if err != nil {
		return 0, fieldError(taskKind, "memory", "must be an integer or a size: %v", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	bytes, err := units.RAMInBytes(value)
	if err != nil {
		return 0, fieldError(taskKind, "memory", "must be an integer or a size, got %q", value)
	}
	mib := bytes / units.MiB
	if mib < 1 {
		return 0, fieldError(taskKind, "memory", "must be at least 1MiB, got %q", value)
	}
	return int(mib), nil
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}
