package main

import (
	"fmt"
	"path/filepath"

	"github.com/poruru-code/taskgen/internal/artifact"
	"github.com/poruru-code/taskgen/internal/ciout"
	"github.com/poruru-code/taskgen/internal/config"
	"github.com/poruru-code/taskgen/internal/logger"
	"github.com/poruru-code/taskgen/internal/taskdef"
)

func runTaskDef(cmd TaskDefCmd, deps commandDeps) error {
	cfg, err := config.LoadTask(cmd.Config)
	if err != nil {
		return err
	}
	doc, err := taskdef.Generate(cfg, taskdef.Overrides{
		Cluster:   cmd.Cluster,
		Region:    cmd.Region,
		Registry:  cmd.Registry,
		ImageName: cmd.Image,
		Tag:       cmd.Tag,
	})
	if err != nil {
		return fmt.Errorf("generate task definition: %w", err)
	}
	if app, ok := doc.Container(taskdef.AppContainerName); ok {
		logger.Info("resolved container image", "image", app.Image)
	}

	data, err := doc.MarshalIndent()
	if err != nil {
		return fmt.Errorf("encode task definition: %w", err)
	}
	if err := artifact.WriteFile(cmd.Output, data); err != nil {
		return fmt.Errorf("write task definition: %w", err)
	}
	logger.Info("wrote task definition", "path", cmd.Output, "family", doc.Family)

	if cmd.Print {
		_, _ = deps.out.Write(data)
	}
	_, _ = fmt.Fprintf(deps.out, "Task definition written to %s\n", cmd.Output)

	if cmd.Manifest {
		source, err := readSource(cmd.Config)
		if err != nil {
			return err
		}
		manifest := artifact.NewManifest(artifact.Generator{Name: generatorName, Version: version}, cmd.Config, source, deps.now())
		manifest.AddOutput(artifact.KindTaskDefinition, cmd.Output, data)
		manifestPath := filepath.Join(filepath.Dir(cmd.Output), artifact.DefaultManifestName)
		if err := artifact.Write(manifestPath, manifest); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		logger.Info("wrote manifest", "path", manifestPath, "generation_id", manifest.GenerationID)
	}

	platform := taskdef.Platform(string(doc.RuntimePlatform.CPUArchitecture))
	outputs := []ciout.Output{
		{Key: ciout.KeyPlatform, Value: taskdef.PlatformString(platform)},
		{Key: ciout.KeyFamily, Value: doc.Family},
		{Key: ciout.KeyOutput, Value: cmd.Output},
	}
	if cfg.ReplicaCount != "" {
		outputs = append([]ciout.Output{{Key: ciout.KeyReplicaCount, Value: cfg.ReplicaCount}}, outputs...)
	}
	if err := deps.emitOutputs(outputs...); err != nil {
		return fmt.Errorf("publish ci outputs: %w", err)
	}
	return nil
}
