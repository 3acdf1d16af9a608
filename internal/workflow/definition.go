// Package workflow generates the scheduled single-step execution that runs a registered
// task definition: a Step Functions state machine plus an EventBridge schedule rule.
package workflow

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/poruru-code/taskgen/internal/config"
)

const (
	RunTaskStateName    = "RunTask"
	RunTaskSyncResource = "arn:aws:states:::ecs:runTask.sync"
	TaskFailedError     = "States.TaskFailed"
)

// StateMachine is an Amazon States Language definition with a single task state.
type StateMachine struct {
	Comment        string           `json:"Comment" yaml:"Comment"`
	StartAt        string           `json:"StartAt" yaml:"StartAt"`
	TimeoutSeconds int              `json:"TimeoutSeconds" yaml:"TimeoutSeconds"`
	States         map[string]State `json:"States" yaml:"States"`
}

type State struct {
	Type       string            `json:"Type" yaml:"Type"`
	Resource   string            `json:"Resource" yaml:"Resource"`
	Parameters RunTaskParameters `json:"Parameters" yaml:"Parameters"`
	Retry      []Retrier         `json:"Retry,omitempty" yaml:"Retry,omitempty"`
	End        bool              `json:"End" yaml:"End"`
}

// RunTaskParameters holds the ecs:runTask arguments. Cluster is a plain ARN in the
// generic definition and may be replaced by an intrinsic reference when rendered.
type RunTaskParameters struct {
	LaunchType           ecstypes.LaunchType  `json:"LaunchType" yaml:"LaunchType"`
	Cluster              any                  `json:"Cluster" yaml:"Cluster"`
	TaskDefinition       string               `json:"TaskDefinition" yaml:"TaskDefinition"`
	NetworkConfiguration NetworkConfiguration `json:"NetworkConfiguration" yaml:"NetworkConfiguration"`
}

type NetworkConfiguration struct {
	AwsvpcConfiguration AwsvpcConfiguration `json:"AwsvpcConfiguration" yaml:"AwsvpcConfiguration"`
}

// AwsvpcConfiguration keeps empty subnet and security group lists as [] rather than omitting them.
type AwsvpcConfiguration struct {
	Subnets        []string                `json:"Subnets" yaml:"Subnets"`
	AssignPublicIP ecstypes.AssignPublicIp `json:"AssignPublicIp" yaml:"AssignPublicIp"`
	SecurityGroups []string                `json:"SecurityGroups" yaml:"SecurityGroups"`
}

// Retrier retries the task on the generic task failure class with exponential backoff:
// the k-th retry waits IntervalSeconds * BackoffRate^k.
type Retrier struct {
	ErrorEquals     []string `json:"ErrorEquals" yaml:"ErrorEquals"`
	IntervalSeconds int      `json:"IntervalSeconds" yaml:"IntervalSeconds"`
	MaxAttempts     int      `json:"MaxAttempts" yaml:"MaxAttempts"`
	BackoffRate     float64  `json:"BackoffRate" yaml:"BackoffRate"`
}

// Params are values known only at deploy time.
type Params struct {
	TaskARN          string
	ClusterARN       string
	SubnetIDs        []string
	SecurityGroupIDs []string
}

// Template is the dialect-neutral scheduled execution.
type Template struct {
	Name        string
	Description string
	RoleARN     string
	Schedule    string
	ClusterARN  string
	TaskARN     string
	Retry       *config.RetryPolicy
	Network     config.Network
	Definition  StateMachine
}

// RuleName is the EventBridge rule name derived from the workflow name.
func (t Template) RuleName() string {
	return t.Name + "-schedule-rule"
}

// Generate builds the state machine and schedule from a validated workflow configuration.
func Generate(cfg config.WorkflowConfig, p Params) (Template, error) {
	taskARN := strings.TrimSpace(p.TaskARN)
	if err := requireECSARN("task definition ARN", taskARN); err != nil {
		return Template{}, err
	}
	clusterARN := strings.TrimSpace(p.ClusterARN)
	if err := requireECSARN("cluster ARN", clusterARN); err != nil {
		return Template{}, err
	}
	if strings.TrimSpace(cfg.Schedule) == "" {
		return Template{}, fmt.Errorf("schedule is required")
	}
	if cfg.Execution.TimeoutSeconds <= 0 {
		return Template{}, fmt.Errorf("execution.timeoutSeconds must be greater than 0")
	}

	network := config.Network{
		SubnetIDs:        nonNil(cfg.Network.SubnetIDs),
		SecurityGroupIDs: nonNil(cfg.Network.SecurityGroupIDs),
		AssignPublicIP:   cfg.Network.AssignPublicIP,
	}
	if len(p.SubnetIDs) > 0 {
		network.SubnetIDs = append([]string(nil), p.SubnetIDs...)
	}
	if len(p.SecurityGroupIDs) > 0 {
		network.SecurityGroupIDs = append([]string(nil), p.SecurityGroupIDs...)
	}

	state := State{
		Type:     "Task",
		Resource: RunTaskSyncResource,
		Parameters: RunTaskParameters{
			LaunchType:     ecstypes.LaunchTypeFargate,
			Cluster:        clusterARN,
			TaskDefinition: taskARN,
			NetworkConfiguration: NetworkConfiguration{
				AwsvpcConfiguration: AwsvpcConfiguration{
					Subnets:        network.SubnetIDs,
					AssignPublicIP: assignPublicIP(network.AssignPublicIP),
					SecurityGroups: network.SecurityGroupIDs,
				},
			},
		},
		End: true,
	}
	var retry *config.RetryPolicy
	if cfg.Retry != nil {
		copied := *cfg.Retry
		retry = &copied
		state.Retry = []Retrier{{
			ErrorEquals:     []string{TaskFailedError},
			IntervalSeconds: copied.IntervalSeconds,
			MaxAttempts:     copied.MaxAttempts,
			BackoffRate:     copied.BackoffRate,
		}}
	}

	return Template{
		Name:        cfg.Name,
		Description: cfg.Description,
		RoleARN:     cfg.RoleARN,
		Schedule:    cfg.Schedule,
		ClusterARN:  clusterARN,
		TaskARN:     taskARN,
		Retry:       retry,
		Network:     network,
		Definition: StateMachine{
			Comment:        cfg.Description,
			StartAt:        RunTaskStateName,
			TimeoutSeconds: cfg.Execution.TimeoutSeconds,
			States:         map[string]State{RunTaskStateName: state},
		},
	}, nil
}

func requireECSARN(label, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", label)
	}
	parsed, err := arn.Parse(value)
	if err != nil {
		return fmt.Errorf("%s %q: %w", label, value, err)
	}
	if parsed.Service != "ecs" {
		return fmt.Errorf("%s %q must belong to ecs, got %s", label, value, parsed.Service)
	}
	return nil
}

func assignPublicIP(enabled bool) ecstypes.AssignPublicIp {
	if enabled {
		return ecstypes.AssignPublicIpEnabled
	}
	return ecstypes.AssignPublicIpDisabled
}

func nonNil(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
