package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poruru-code/taskgen/internal/yamlshape"
)

const workflowKind = "workflow configuration"

// WorkflowConfig is the normalized scheduling section of a deployment configuration.
type WorkflowConfig struct {
	Name        string       `yaml:"name" validate:"required"`
	Description string       `yaml:"description"`
	Schedule    string       `yaml:"schedule" validate:"required,schedule"`
	RoleARN     string       `yaml:"role_arn" validate:"omitempty,awsarn"`
	Execution   Execution    `yaml:"execution"`
	Retry       *RetryPolicy `yaml:"retryPolicy"`
	Network     Network      `yaml:"network"`
}

type Execution struct {
	TimeoutSeconds int `yaml:"timeoutSeconds" validate:"gt=0"`
}

// RetryPolicy is emitted verbatim into the state machine Retry block.
// A nil policy means the task runs once and fails hard.
type RetryPolicy struct {
	MaxAttempts     int     `yaml:"maxAttempts" validate:"gte=0"`
	BackoffRate     float64 `yaml:"backoffRate" validate:"gte=1"`
	IntervalSeconds int     `yaml:"intervalSeconds" validate:"gte=1"`
}

// Network is the awsvpc placement of the scheduled task.
// Empty lists are kept; the deployment tool rejects them, not the generator.
type Network struct {
	SubnetIDs        []string `yaml:"subnetIds"`
	SecurityGroupIDs []string `yaml:"securityGroupIds"`
	AssignPublicIP   bool     `yaml:"assignPublicIp"`
}

type rawWorkflow struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Schedule    string `yaml:"schedule"`
	RoleARN     string `yaml:"role_arn"`
	Execution   struct {
		TimeoutSeconds *int `yaml:"timeoutSeconds"`
	} `yaml:"execution"`
	RetryPolicy *struct {
		MaxAttempts     *int     `yaml:"maxAttempts"`
		BackoffRate     *float64 `yaml:"backoffRate"`
		IntervalSeconds *int     `yaml:"intervalSeconds"`
	} `yaml:"retryPolicy"`
	Network struct {
		SubnetIDs        yaml.Node `yaml:"subnetIds"`
		SecurityGroupIDs yaml.Node `yaml:"securityGroupIds"`
		AssignPublicIP   *bool     `yaml:"assignPublicIp"`
	} `yaml:"network"`
}

// LoadWorkflow reads and validates the workflow section of a YAML configuration file.
func LoadWorkflow(path string) (WorkflowConfig, error) {
	data, err := readConfig(path)
	if err != nil {
		return WorkflowConfig{}, err
	}
	return DecodeWorkflow(data)
}

// DecodeWorkflow decodes, fills defaults and validates a workflow configuration document.
func DecodeWorkflow(data []byte) (WorkflowConfig, error) {
	var raw rawWorkflow
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return WorkflowConfig{}, fmt.Errorf("decode %s: %w", workflowKind, err)
	}
	cfg, err := raw.normalize()
	if err != nil {
		return WorkflowConfig{}, err
	}
	if err := validateStruct(workflowKind, cfg); err != nil {
		return WorkflowConfig{}, err
	}
	return cfg, nil
}

func (r rawWorkflow) normalize() (WorkflowConfig, error) {
	cfg := WorkflowConfig{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Schedule:    r.Schedule,
		RoleARN:     strings.TrimSpace(r.RoleARN),
		Execution: Execution{
			TimeoutSeconds: intOr(r.Execution.TimeoutSeconds, DefaultTimeoutSeconds),
		},
	}
	if cfg.Name == "" {
		cfg.Name = DefaultWorkflowName
	}

	if r.RetryPolicy != nil {
		backoff := DefaultRetryBackoffRate
		if r.RetryPolicy.BackoffRate != nil {
			backoff = *r.RetryPolicy.BackoffRate
		}
		cfg.Retry = &RetryPolicy{
			MaxAttempts:     intOr(r.RetryPolicy.MaxAttempts, DefaultRetryMaxAttempts),
			BackoffRate:     backoff,
			IntervalSeconds: intOr(r.RetryPolicy.IntervalSeconds, DefaultRetryIntervalSeconds),
		}
	}

	var err error
	if cfg.Network.SubnetIDs, err = yamlshape.Strings(&r.Network.SubnetIDs); err != nil {
		return WorkflowConfig{}, fieldError(workflowKind, "network.subnetIds", "must be a string list: %v", err)
	}
	if cfg.Network.SecurityGroupIDs, err = yamlshape.Strings(&r.Network.SecurityGroupIDs); err != nil {
		return WorkflowConfig{}, fieldError(workflowKind, "network.securityGroupIds", "must be a string list: %v", err)
	}
	cfg.Network.AssignPublicIP = true
	if r.Network.AssignPublicIP != nil {
		cfg.Network.AssignPublicIP = *r.Network.AssignPublicIP
	}
	return cfg, nil
}
