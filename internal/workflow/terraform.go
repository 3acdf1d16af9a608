package workflow

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

const (
	stateMachineResource = "ecs_state_machine"
	scheduleRuleResource = "schedule_rule"
	scheduleTargetName   = "state_machine_target"
)

// RenderTerraform renders the template as a Terraform configuration. Every tunable
// value is a variable whose default is the generated value.
func RenderTerraform(t Template) ([]byte, error) {
	file := hclwrite.NewEmptyFile()
	body := file.Body()

	body.AppendUnstructuredTokens(comment(fmt.Sprintf("Generated Step Functions state machine and schedule for %s", t.Name)))
	if t.Description != "" {
		body.AppendUnstructuredTokens(comment(fmt.Sprintf("Description: %s", t.Description)))
	}
	body.AppendNewline()

	appendVariable(body, "name", "Name of the Step Functions state machine", nil, cty.StringVal(t.Name))
	appendVariable(body, "role_arn", "IAM role ARN for the state machine and schedule target", nil, cty.StringVal(t.RoleARN))
	appendVariable(body, "timeout_seconds", "Timeout for the state machine execution in seconds", nil,
		cty.NumberIntVal(int64(t.Definition.TimeoutSeconds)))
	if t.Retry != nil {
		appendVariable(body, "retry_attempts", "Maximum retry attempts for the task", nil, cty.NumberIntVal(int64(t.Retry.MaxAttempts)))
		appendVariable(body, "retry_interval_seconds", "Interval before the first retry in seconds", nil,
			cty.NumberIntVal(int64(t.Retry.IntervalSeconds)))
		appendVariable(body, "retry_backoff_rate", "Multiplier applied to the retry interval after each attempt", nil,
			cty.NumberFloatVal(t.Retry.BackoffRate))
	}
	appendVariable(body, "schedule_expression", "EventBridge schedule expression", nil, cty.StringVal(t.Schedule))
	appendVariable(body, "ecs_cluster_arn", "ECS cluster ARN", nil, cty.StringVal(t.ClusterARN))
	appendVariable(body, "task_definition_arn", "Registered ECS task definition ARN", nil, cty.StringVal(t.TaskARN))
	appendVariable(body, "subnet_ids", "Subnet IDs for the ECS task", listOfString(), stringList(t.Network.SubnetIDs))
	appendVariable(body, "security_group_ids", "Security group IDs for the ECS task", listOfString(), stringList(t.Network.SecurityGroupIDs))

	machine := body.AppendNewBlock("resource", []string{"aws_sfn_state_machine", stateMachineResource}).Body()
	machine.SetAttributeTraversal("name", varRef("name"))
	machine.SetAttributeTraversal("role_arn", varRef("role_arn"))
	machine.SetAttributeRaw("definition", hclwrite.TokensForFunctionCall("jsonencode", definitionTokens(t)))
	body.AppendNewline()

	rule := body.AppendNewBlock("resource", []string{"aws_cloudwatch_event_rule", scheduleRuleResource}).Body()
	rule.SetAttributeRaw("name", hclwrite.TokensForFunctionCall("format",
		hclwrite.TokensForValue(cty.StringVal("%s-schedule-rule")),
		hclwrite.TokensForTraversal(varRef("name")),
	))
	rule.SetAttributeTraversal("schedule_expression", varRef("schedule_expression"))
	body.AppendNewline()

	target := body.AppendNewBlock("resource", []string{"aws_cloudwatch_event_target", scheduleTargetName}).Body()
	target.SetAttributeTraversal("rule", resourceRef("aws_cloudwatch_event_rule", scheduleRuleResource, "name"))
	target.SetAttributeTraversal("arn", resourceRef("aws_sfn_state_machine", stateMachineResource, "arn"))
	target.SetAttributeTraversal("role_arn", varRef("role_arn"))
	body.AppendNewline()

	output := body.AppendNewBlock("output", []string{"state_machine_arn"}).Body()
	output.SetAttributeValue("description", cty.StringVal("ARN of the created state machine"))
	output.SetAttributeTraversal("value", resourceRef("aws_sfn_state_machine", stateMachineResource, "arn"))

	return hclwrite.Format(file.Bytes()), nil
}

func definitionTokens(t Template) hclwrite.Tokens {
	state := t.Definition.States[RunTaskStateName]
	awsvpc := state.Parameters.NetworkConfiguration.AwsvpcConfiguration

	stateAttrs := []hclwrite.ObjectAttrTokens{
		attr("Type", hclwrite.TokensForValue(cty.StringVal(state.Type))),
		attr("Resource", hclwrite.TokensForValue(cty.StringVal(state.Resource))),
		attr("Parameters", object(
			attr("LaunchType", hclwrite.TokensForValue(cty.StringVal(string(state.Parameters.LaunchType)))),
			attr("Cluster", hclwrite.TokensForTraversal(varRef("ecs_cluster_arn"))),
			attr("TaskDefinition", hclwrite.TokensForTraversal(varRef("task_definition_arn"))),
			attr("NetworkConfiguration", object(
				attr("AwsvpcConfiguration", object(
					attr("Subnets", hclwrite.TokensForTraversal(varRef("subnet_ids"))),
					attr("AssignPublicIp", hclwrite.TokensForValue(cty.StringVal(string(awsvpc.AssignPublicIP)))),
					attr("SecurityGroups", hclwrite.TokensForTraversal(varRef("security_group_ids"))),
				)),
			)),
		)),
	}
	for _, retrier := range state.Retry {
		errorNames := make([]cty.Value, 0, len(retrier.ErrorEquals))
		for _, name := range retrier.ErrorEquals {
			errorNames = append(errorNames, cty.StringVal(name))
		}
		stateAttrs = append(stateAttrs, attr("Retry", hclwrite.TokensForTuple([]hclwrite.Tokens{object(
			attr("ErrorEquals", hclwrite.TokensForValue(cty.TupleVal(errorNames))),
			attr("IntervalSeconds", hclwrite.TokensForTraversal(varRef("retry_interval_seconds"))),
			attr("MaxAttempts", hclwrite.TokensForTraversal(varRef("retry_attempts"))),
			attr("BackoffRate", hclwrite.TokensForTraversal(varRef("retry_backoff_rate"))),
		)})))
	}
	stateAttrs = append(stateAttrs, attr("End", hclwrite.TokensForValue(cty.BoolVal(state.End))))

	return object(
		attr("Comment", hclwrite.TokensForValue(cty.StringVal(t.Definition.Comment))),
		attr("StartAt", hclwrite.TokensForValue(cty.StringVal(t.Definition.StartAt))),
		attr("TimeoutSeconds", hclwrite.TokensForTraversal(varRef("timeout_seconds"))),
		attr("States", object(
			attr(RunTaskStateName, hclwrite.TokensForObject(stateAttrs)),
		)),
	)
}

func appendVariable(body *hclwrite.Body, name, description string, typ hclwrite.Tokens, value cty.Value) {
	variable := body.AppendNewBlock("variable", []string{name}).Body()
	variable.SetAttributeValue("description", cty.StringVal(description))
	if typ != nil {
		variable.SetAttributeRaw("type", typ)
	}
	variable.SetAttributeValue("default", value)
	body.AppendNewline()
}

func attr(name string, value hclwrite.Tokens) hclwrite.ObjectAttrTokens {
	return hclwrite.ObjectAttrTokens{Name: hclwrite.TokensForIdentifier(name), Value: value}
}

func object(attrs ...hclwrite.ObjectAttrTokens) hclwrite.Tokens {
	return hclwrite.TokensForObject(attrs)
}

func listOfString() hclwrite.Tokens {
	return hclwrite.TokensForFunctionCall("list", hclwrite.TokensForIdentifier("string"))
}

// stringList keeps empty lists as [] so the deploy tool, not the generator, rejects them.
func stringList(values []string) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	out := make([]cty.Value, 0, len(values))
	for _, value := range values {
		out = append(out, cty.StringVal(value))
	}
	return cty.ListVal(out)
}

func varRef(name string) hcl.Traversal {
	return hcl.Traversal{hcl.TraverseRoot{Name: "var"}, hcl.TraverseAttr{Name: name}}
}

func resourceRef(resourceType, name, attribute string) hcl.Traversal {
	return hcl.Traversal{
		hcl.TraverseRoot{Name: resourceType},
		hcl.TraverseAttr{Name: name},
		hcl.TraverseAttr{Name: attribute},
	}
}

func comment(text string) hclwrite.Tokens {
	text = strings.Join(strings.Fields(text), " ")
	return hclwrite.Tokens{{Type: hclsyntax.TokenComment, Bytes: []byte("# " + text + "\n")}}
}
