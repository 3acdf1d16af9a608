package main

import (
	"fmt"

	"github.com/poruru-code/taskgen/internal/artifact"
	"github.com/poruru-code/taskgen/internal/logger"
)

func runManifestVerify(cmd ManifestVerifyCmd, deps commandDeps) error {
	manifest, err := artifact.Verify(cmd.Manifest)
	if err != nil {
		return err
	}
	logger.Info("manifest verified", "path", cmd.Manifest, "generation_id", manifest.GenerationID)
	_, _ = fmt.Fprintf(deps.out, "manifest verified: %d output(s) match\n", len(manifest.Outputs))
	return nil
}
