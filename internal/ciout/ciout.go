// Package ciout publishes step outputs to the calling CI pipeline.
package ciout

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// GitHubOutputEnv names the file GitHub Actions collects step outputs from.
const GitHubOutputEnv = "GITHUB_OUTPUT"

const (
	KeyReplicaCount = "replica_count"
	KeyPlatform     = "platform"
	KeyFamily       = "family"
	KeyOutput       = "output"
)

type Output struct {
	Key   string
	Value string
}

// Emit appends outputs to the file named by GITHUB_OUTPUT. Outside a pipeline it is a no-op.
func Emit(outputs ...Output) error {
	path := strings.TrimSpace(os.Getenv(GitHubOutputEnv))
	if path == "" {
		return nil
	}
	return EmitTo(path, outputs...)
}

// EmitTo appends outputs to path as key=value lines. Multi-line values use the
// heredoc form with a random delimiter.
func EmitTo(path string, outputs ...Output) error {
	var b strings.Builder
	for _, output := range outputs {
		key := strings.TrimSpace(output.Key)
		if key == "" || strings.ContainsAny(key, "=\r\n") {
			return fmt.Errorf("invalid output key %q", output.Key)
		}
		if strings.ContainsAny(output.Value, "\r\n") {
			delimiter := "ghadelimiter_" + uuid.NewString()
			fmt.Fprintf(&b, "%s<<%s\n%s\n%s\n", key, delimiter, output.Value, delimiter)
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", key, output.Value)
	}
	if b.Len() == 0 {
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ci output file: %w", err)
	}
	if _, err := file.WriteString(b.String()); err != nil {
		_ = file.Close()
		return fmt.Errorf("write ci outputs: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ci output file: %w", err)
	}
	return nil
}
