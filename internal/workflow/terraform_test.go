package workflow

import (
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseTerraform(t *testing.T, data []byte) *hclsyntax.Body {
	t.Helper()
	file, diags := hclsyntax.ParseConfig(data, "main.tf", hcl.InitialPos)
	require.False(t, diags.HasErrors(), "parse main.tf: %s\n%s", diags.Error(), data)
	body, ok := file.Body.(*hclsyntax.Body)
	require.True(t, ok)
	return body
}

func findBlock(body *hclsyntax.Body, blockType string, labels ...string) *hclsyntax.Block {
	for _, block := range body.Blocks {
		if block.Type != blockType || len(block.Labels) != len(labels) {
			continue
		}
		match := true
		for i := range labels {
			if block.Labels[i] != labels[i] {
				match = false
				break
			}
		}
		if match {
			return block
		}
	}
	return nil
}

func variableDefault(t *testing.T, body *hclsyntax.Body, name string) cty.Value {
	t.Helper()
	block := findBlock(body, "variable", name)
	require.NotNil(t, block, "variable %s not found", name)
	attr, ok := block.Body.Attributes["default"]
	require.True(t, ok, "variable %s has no default", name)
	value, diags := attr.Expr.Value(nil)
	require.False(t, diags.HasErrors(), diags.Error())
	return value
}

func renderTerraform(t *testing.T, src string) ([]byte, *hclsyntax.Body) {
	t.Helper()
	tmpl, err := Generate(decodeWorkflow(t, src), testParams())
	require.NoError(t, err)
	data, err := Render(tmpl, FormatTerraform)
	require.NoError(t, err)
	return data, parseTerraform(t, data)
}

func TestRenderTerraformRoundTripsSchedule(t *testing.T) {
	_, body := renderTerraform(t, retryingWorkflow)

	schedule := variableDefault(t, body, "schedule_expression")
	assert.Equal(t, "cron(0 3 * * ? *)", schedule.AsString())
	assert.Equal(t, testTaskARN, variableDefault(t, body, "task_definition_arn").AsString())
	assert.Equal(t, testClusterARN, variableDefault(t, body, "ecs_cluster_arn").AsString())
	assert.Equal(t, "nightly-report", variableDefault(t, body, "name").AsString())
}

func TestRenderTerraformRetryVerbatim(t *testing.T) {
	data, body := renderTerraform(t, retryingWorkflow)

	attempts, _ := variableDefault(t, body, "retry_attempts").AsBigFloat().Int64()
	backoff, _ := variableDefault(t, body, "retry_backoff_rate").AsBigFloat().Float64()
	interval, _ := variableDefault(t, body, "retry_interval_seconds").AsBigFloat().Int64()
	timeout, _ := variableDefault(t, body, "timeout_seconds").AsBigFloat().Int64()
	assert.Equal(t, int64(3), attempts)
	assert.Equal(t, 2.0, backoff)
	assert.Equal(t, int64(60), interval)
	assert.Equal(t, int64(1800), timeout)

	text := string(data)
	assert.Contains(t, text, `"States.TaskFailed"`)
	assert.Contains(t, text, "var.retry_attempts")
}

func TestRenderTerraformResources(t *testing.T) {
	_, body := renderTerraform(t, retryingWorkflow)

	machine := findBlock(body, "resource", "aws_sfn_state_machine", "ecs_state_machine")
	require.NotNil(t, machine)
	definition, ok := machine.Body.Attributes["definition"]
	require.True(t, ok)
	call, ok := definition.Expr.(*hclsyntax.FunctionCallExpr)
	require.True(t, ok, "definition must be a function call")
	assert.Equal(t, "jsonencode", call.Name)

	require.NotNil(t, findBlock(body, "resource", "aws_cloudwatch_event_rule", "schedule_rule"))
	target := findBlock(body, "resource", "aws_cloudwatch_event_target", "state_machine_target")
	require.NotNil(t, target)
	require.Contains(t, target.Body.Attributes, "arn")
	require.NotNil(t, findBlock(body, "output", "state_machine_arn"))
}

func TestRenderTerraformEmptyNetworkAndNoRetry(t *testing.T) {
	data, body := renderTerraform(t, "schedule: rate(5 minutes)\n")

	subnets := variableDefault(t, body, "subnet_ids")
	assert.True(t, subnets.LengthInt() == 0, "subnet_ids default must be an empty list")
	groups := variableDefault(t, body, "security_group_ids")
	assert.True(t, groups.LengthInt() == 0, "security_group_ids default must be an empty list")

	assert.Nil(t, findBlock(body, "variable", "retry_attempts"))
	assert.False(t, strings.Contains(string(data), "Retry"), "no retry block expected:\n%s", data)
}

func TestRenderTerraformEscapesTemplateSequences(t *testing.T) {
	_, body := renderTerraform(t, "schedule: rate(1 day)\ndescription: uses ${literal}\n")
	block := findBlock(body, "resource", "aws_sfn_state_machine", "ecs_state_machine")
	require.NotNil(t, block)
	assert.Equal(t, "rate(1 day)", variableDefault(t, body, "schedule_expression").AsString())
}
