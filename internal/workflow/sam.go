package workflow

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	samTemplateFormatVersion = "2010-09-09"
	samTransform             = "AWS::Serverless-2016-10-31"

	stateMachineLogicalID = "StepFunction"
	scheduleRuleLogicalID = "ScheduleRule"
	scheduleTargetID      = "StepFunctionTarget"

	clusterParameter   = "ClusterArn"
	roleParameter      = "TaskRoleArn"
	stateMachineOutput = "StateMachineArn"
)

type samTemplate struct {
	AWSTemplateFormatVersion string                  `yaml:"AWSTemplateFormatVersion"`
	Transform                string                  `yaml:"Transform"`
	Description              string                  `yaml:"Description"`
	Parameters               map[string]samParameter `yaml:"Parameters"`
	Resources                samResources            `yaml:"Resources"`
	Outputs                  map[string]samOutput    `yaml:"Outputs"`
}

type samParameter struct {
	Type        string `yaml:"Type"`
	Description string `yaml:"Description"`
	Default     string `yaml:"Default"`
}

type samResources struct {
	StepFunction samStateMachine `yaml:"StepFunction"`
	ScheduleRule samScheduleRule `yaml:"ScheduleRule"`
}

type samStateMachine struct {
	Type       string                    `yaml:"Type"`
	Properties samStateMachineProperties `yaml:"Properties"`
}

type samStateMachineProperties struct {
	StateMachineName string       `yaml:"StateMachineName"`
	RoleArn          any          `yaml:"RoleArn"`
	Definition       StateMachine `yaml:"Definition"`
}

type samScheduleRule struct {
	Type       string                    `yaml:"Type"`
	Properties samScheduleRuleProperties `yaml:"Properties"`
}

type samScheduleRuleProperties struct {
	Name               string      `yaml:"Name"`
	ScheduleExpression string      `yaml:"ScheduleExpression"`
	Targets            []samTarget `yaml:"Targets"`
}

type samTarget struct {
	ID      string `yaml:"Id"`
	Arn     any    `yaml:"Arn"`
	RoleArn any    `yaml:"RoleArn"`
}

type samOutput struct {
	Description string `yaml:"Description"`
	Value       any    `yaml:"Value"`
}

func ref(name string) map[string]string {
	return map[string]string{"Ref": name}
}

func getAtt(resource, attribute string) map[string][]string {
	return map[string][]string{"Fn::GetAtt": {resource, attribute}}
}

// RenderSAM renders the template in the serverless application model dialect.
// The cluster and role are template parameters defaulting to the generated values.
func RenderSAM(t Template) ([]byte, error) {
	definition := t.Definition
	definition.States = make(map[string]State, len(t.Definition.States))
	for name, state := range t.Definition.States {
		state.Parameters.Cluster = ref(clusterParameter)
		definition.States[name] = state
	}

	doc := samTemplate{
		AWSTemplateFormatVersion: samTemplateFormatVersion,
		Transform:                samTransform,
		Description:              t.Description,
		Parameters: map[string]samParameter{
			clusterParameter: {
				Type:        "String",
				Description: "ARN of the ECS cluster",
				Default:     t.ClusterARN,
			},
			roleParameter: {
				Type:        "String",
				Description: "IAM role ARN for the state machine and schedule target",
				Default:     t.RoleARN,
			},
		},
		Resources: samResources{
			StepFunction: samStateMachine{
				Type: "AWS::StepFunctions::StateMachine",
				Properties: samStateMachineProperties{
					StateMachineName: t.Name,
					RoleArn:          ref(roleParameter),
					Definition:       definition,
				},
			},
			ScheduleRule: samScheduleRule{
				Type: "AWS::Events::Rule",
				Properties: samScheduleRuleProperties{
					Name:               t.RuleName(),
					ScheduleExpression: t.Schedule,
					Targets: []samTarget{{
						ID:      scheduleTargetID,
						Arn:     getAtt(stateMachineLogicalID, "Arn"),
						RoleArn: ref(roleParameter),
					}},
				},
			},
		},
		Outputs: map[string]samOutput{
			stateMachineOutput: {
				Description: "ARN of the created state machine",
				Value:       getAtt(stateMachineLogicalID, "Arn"),
			},
		},
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("encode sam template: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close sam template encoder: %w", err)
	}
	return buf.Bytes(), nil
}
