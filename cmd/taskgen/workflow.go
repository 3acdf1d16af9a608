package main

import (
	"fmt"
	"path/filepath"

	"github.com/poruru-code/taskgen/internal/artifact"
	"github.com/poruru-code/taskgen/internal/ciout"
	"github.com/poruru-code/taskgen/internal/config"
	"github.com/poruru-code/taskgen/internal/logger"
	"github.com/poruru-code/taskgen/internal/workflow"
)

var outputKinds = map[workflow.Format]string{
	workflow.FormatSAM:       artifact.KindWorkflowSAM,
	workflow.FormatTerraform: artifact.KindWorkflowTerraform,
}

func runWorkflow(cmd WorkflowCmd, deps commandDeps) error {
	formats, err := workflow.ParseFormats(cmd.Format)
	if err != nil {
		return err
	}
	cfg, err := config.LoadWorkflow(cmd.Config)
	if err != nil {
		return err
	}
	tmpl, err := workflow.Generate(cfg, workflow.Params{
		TaskARN:          cmd.TaskARN,
		ClusterARN:       cmd.ClusterARN,
		SubnetIDs:        cmd.SubnetIDs,
		SecurityGroupIDs: cmd.SecurityGroupIDs,
	})
	if err != nil {
		return fmt.Errorf("generate workflow: %w", err)
	}
	if len(tmpl.Network.SubnetIDs) == 0 {
		logger.Warn("workflow has no subnets; the run task call will fail at deploy time", "workflow", tmpl.Name)
	}

	var manifest artifact.Manifest
	if cmd.Manifest {
		source, err := readSource(cmd.Config)
		if err != nil {
			return err
		}
		manifest = artifact.NewManifest(artifact.Generator{Name: generatorName, Version: version}, cmd.Config, source, deps.now())
	}

	written := make([]string, 0, len(formats))
	for _, format := range formats {
		data, err := workflow.Render(tmpl, format)
		if err != nil {
			return fmt.Errorf("render %s template: %w", format, err)
		}
		path := filepath.Join(cmd.OutputDir, format.FileName())
		if err := artifact.WriteFile(path, data); err != nil {
			return fmt.Errorf("write %s template: %w", format, err)
		}
		logger.Info("wrote workflow template", "format", string(format), "path", path)
		_, _ = fmt.Fprintf(deps.out, "Successfully generated %s template: %s\n", format, path)
		written = append(written, path)
		if cmd.Manifest {
			manifest.AddOutput(outputKinds[format], path, data)
		}
	}

	if cmd.Manifest {
		manifestPath := filepath.Join(cmd.OutputDir, artifact.DefaultManifestName)
		if err := artifact.Write(manifestPath, manifest); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		logger.Info("wrote manifest", "path", manifestPath, "generation_id", manifest.GenerationID)
	}

	if err := deps.emitOutputs(ciout.Output{Key: ciout.KeyOutput, Value: cmd.OutputDir}); err != nil {
		return fmt.Errorf("publish ci outputs: %w", err)
	}
	logger.Debug("workflow generation complete", "files", written)
	return nil
}
