// Where: cmd/taskgen/main.go
// What: Command entrypoint for task definition and workflow template generation.
// Why: Keep argument parsing and file output at the edge so generators stay pure.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/poruru-code/taskgen/internal/artifact"
	"github.com/poruru-code/taskgen/internal/ciout"
	"github.com/poruru-code/taskgen/internal/config"
	"github.com/poruru-code/taskgen/internal/logger"
)

const generatorName = "taskgen"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `name:"version" help:"Print version and exit"`
	TaskDef  TaskDefCmd       `cmd:"" name:"task-def" help:"Generate an ECS task definition from a task configuration"`
	Workflow WorkflowCmd      `cmd:"" help:"Generate a scheduled Step Functions workflow template"`
	Manifest ManifestCmd      `cmd:"" help:"Output manifest helpers"`
}

type TaskDefCmd struct {
	Config   string `arg:"" name:"config" help:"Path to the task configuration YAML"`
	Cluster  string `arg:"" name:"cluster" help:"ECS cluster name"`
	Region   string `arg:"" name:"region" help:"AWS region for log configuration"`
	Registry string `arg:"" name:"registry" help:"Container registry URL"`
	Image    string `arg:"" name:"image" help:"Container image name"`
	Tag      string `arg:"" name:"tag" optional:"" help:"Container image tag (falls back to a tag embedded in the image name)"`
	Output   string `name:"output" default:"task-definition.json" env:"TASKGEN_OUTPUT" help:"Output file path"`
	Print    bool   `name:"print" help:"Also print the task definition to stdout"`
	Manifest bool   `name:"manifest" help:"Write ${manifest_name} next to the output"`
}

type WorkflowCmd struct {
	Config           string   `name:"config" required:"" help:"Path to the workflow configuration YAML"`
	TaskARN          string   `name:"task-arn" required:"" env:"TASK_DEFINITION_ARN" help:"Registered ECS task definition ARN"`
	ClusterARN       string   `name:"cluster-arn" required:"" env:"ECS_CLUSTER_ARN" help:"ECS cluster ARN"`
	SubnetIDs        []string `name:"subnet-ids" sep:"," help:"Subnet IDs (repeatable or comma-separated); overrides network.subnetIds"`
	SecurityGroupIDs []string `name:"security-group-ids" sep:"," help:"Security group IDs (repeatable or comma-separated); overrides network.securityGroupIds"`
	Format           string   `name:"format" default:"all" enum:"sam,terraform,tf,all" help:"Output dialect: sam, terraform or all"`
	OutputDir        string   `name:"output-dir" default:"terraform" env:"TASKGEN_OUTPUT_DIR" help:"Directory to write templates into"`
	Manifest         bool     `name:"manifest" help:"Write ${manifest_name} into the output directory"`
}

type ManifestCmd struct {
	Verify ManifestVerifyCmd `cmd:"" help:"Check that generated outputs still match their recorded digests"`
}

type ManifestVerifyCmd struct {
	Manifest string `name:"manifest" required:"" help:"Path to ${manifest_name}"`
}

type kongExitCode int

type commandDeps struct {
	now         func() time.Time
	emitOutputs func(...ciout.Output) error
	out         io.Writer
	errOut      io.Writer
}

func main() {
	logger.Init()
	os.Exit(run(os.Args[1:], defaultDeps()))
}

func defaultDeps() commandDeps {
	return commandDeps{
		now:         time.Now,
		emitOutputs: ciout.Emit,
		out:         os.Stdout,
		errOut:      os.Stderr,
	}
}

func (d commandDeps) withDefaults() commandDeps {
	if d.now == nil {
		d.now = time.Now
	}
	if d.emitOutputs == nil {
		d.emitOutputs = ciout.Emit
	}
	if d.out == nil {
		d.out = os.Stdout
	}
	if d.errOut == nil {
		d.errOut = os.Stderr
	}
	return d
}

func run(args []string, deps commandDeps) (exitCode int) {
	deps = deps.withDefaults()
	out := deps.out
	errOut := deps.errOut

	cli := CLI{}
	parser, err := kong.New(
		&cli,
		kong.Name(generatorName),
		kong.Description("Generate ECS task definitions and scheduled workflow templates from YAML."),
		kong.Writers(out, errOut),
		kong.Vars{
			"version":       version,
			"manifest_name": artifact.DefaultManifestName,
		},
		kong.Exit(func(code int) {
			panic(kongExitCode(code))
		}),
	)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: initialize command parser: %v\n", err)
		return 1
	}
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		code, ok := recovered.(kongExitCode)
		if !ok {
			panic(recovered)
		}
		exitCode = int(code)
	}()
	ctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		_, _ = fmt.Fprintln(errOut, "Hint: run `taskgen --help`, `taskgen task-def --help`, `taskgen workflow --help`, or `taskgen manifest verify --help`.")
		return 1
	}

	// Positional arguments are part of the command path, so match on the leading words.
	var command string
	switch selected := ctx.Command(); {
	case strings.HasPrefix(selected, "task-def"):
		command = "task-def"
		err = runTaskDef(cli.TaskDef, deps)
	case selected == "workflow":
		command = "workflow"
		err = runWorkflow(cli.Workflow, deps)
	case selected == "manifest verify":
		command = "manifest verify"
		err = runManifestVerify(cli.Manifest.Verify, deps)
	default:
		_, _ = fmt.Fprintf(errOut, "Error: unsupported command: %s\n", ctx.Command())
		_, _ = fmt.Fprintln(errOut, "Hint: run `taskgen --help`.")
		return 1
	}
	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		_, _ = fmt.Fprintf(errOut, "Hint: %s\n", hintForError(command, err))
		return 1
	}
	return 0
}

func hintForError(command string, err error) string {
	var missingConfig config.MissingConfigError
	var invalidConfig config.ValidationError
	var mismatch artifact.DigestMismatchError
	var missingPath artifact.MissingReferencedPathError

	switch {
	case errors.As(err, &missingConfig):
		return "confirm the configuration path exists and is readable."
	case errors.As(err, &invalidConfig):
		return fmt.Sprintf("fix the listed %s fields and rerun `taskgen %s`.", invalidConfig.Kind, command)
	case errors.As(err, &mismatch):
		return "regenerate the outputs or restore the edited files before deploying."
	case errors.As(err, &missingPath):
		return "confirm `--manifest` and the files it references exist and are readable."
	default:
		return fmt.Sprintf("run `taskgen %s --help` for required arguments.", command)
	}
}

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration for manifest: %w", err)
	}
	return data, nil
}
