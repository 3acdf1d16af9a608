// Package artifact writes generated files atomically and records them in a manifest
// whose digests let a pipeline detect drift between generation and deployment.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	digest "github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"
)

const (
	SchemaVersionV1     = "1"
	DefaultManifestName = "taskgen-manifest.yml"

	KindTaskDefinition    = "task-definition"
	KindWorkflowSAM       = "workflow-sam"
	KindWorkflowTerraform = "workflow-terraform"
)

type Manifest struct {
	SchemaVersion string    `yaml:"schema_version"`
	Generator     Generator `yaml:"generator"`
	GenerationID  string    `yaml:"generation_id"`
	GeneratedAt   string    `yaml:"generated_at"`
	Source        Source    `yaml:"source"`
	Outputs       []Output  `yaml:"outputs"`
}

type Generator struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

// Source is the configuration file the outputs were generated from.
type Source struct {
	Path   string        `yaml:"path"`
	Digest digest.Digest `yaml:"digest"`
}

type Output struct {
	Kind   string        `yaml:"kind"`
	Path   string        `yaml:"path"`
	Digest digest.Digest `yaml:"digest"`
}

// NewManifest starts a manifest for one generation run over the given source file.
func NewManifest(generator Generator, sourcePath string, source []byte, now time.Time) Manifest {
	return Manifest{
		SchemaVersion: SchemaVersionV1,
		Generator:     generator,
		GenerationID:  uuid.NewString(),
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		Source: Source{
			Path:   sourcePath,
			Digest: digest.FromBytes(source),
		},
	}
}

// AddOutput records a generated file and the digest of the bytes written to it.
func (m *Manifest) AddOutput(kind, path string, content []byte) {
	m.Outputs = append(m.Outputs, Output{
		Kind:   kind,
		Path:   path,
		Digest: digest.FromBytes(content),
	})
}

func (m Manifest) Validate() error {
	schemaVersion := strings.TrimSpace(m.SchemaVersion)
	if schemaVersion == "" {
		return fmt.Errorf("schema_version is required")
	}
	if schemaVersion != SchemaVersionV1 {
		return fmt.Errorf("unsupported schema_version: %q (supported: %q)", schemaVersion, SchemaVersionV1)
	}
	if strings.TrimSpace(m.Generator.Name) == "" {
		return fmt.Errorf("generator.name is required")
	}
	if _, err := uuid.Parse(m.GenerationID); err != nil {
		return fmt.Errorf("generation_id must be a UUID: %w", err)
	}
	if _, err := time.Parse(time.RFC3339, m.GeneratedAt); err != nil {
		return fmt.Errorf("generated_at must be an RFC 3339 timestamp: %w", err)
	}
	if err := validateEntry("source", m.Source.Path, m.Source.Digest); err != nil {
		return err
	}
	if len(m.Outputs) == 0 {
		return fmt.Errorf("outputs must contain at least one entry")
	}
	for i, output := range m.Outputs {
		prefix := fmt.Sprintf("outputs[%d]", i)
		if strings.TrimSpace(output.Kind) == "" {
			return fmt.Errorf("%s.kind is required", prefix)
		}
		if err := validateEntry(prefix, output.Path, output.Digest); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(prefix, path string, d digest.Digest) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%s.path is required", prefix)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%s.digest: %w", prefix, err)
	}
	return nil
}

// Read loads and validates a manifest.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("read manifest: %w", MissingReferencedPathError{Path: path})
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return manifest, nil
}

// Write stores the manifest atomically. Entry paths are rewritten relative to the
// manifest directory so the manifest can move together with its outputs.
func Write(path string, manifest Manifest) error {
	normalized, err := relativize(filepath.Dir(path), manifest)
	if err != nil {
		return err
	}
	if err := normalized.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(normalized); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("close manifest encoder: %w", err)
	}
	return WriteFile(path, buf.Bytes())
}

// Verify recomputes the digest of the source and every output listed in the manifest.
// Drifted files are reported as DigestMismatchError values joined into one error.
func Verify(manifestPath string) (Manifest, error) {
	manifest, err := Read(manifestPath)
	if err != nil {
		return Manifest{}, err
	}
	baseDir := filepath.Dir(manifestPath)

	var errs []error
	check := func(path string, expected digest.Digest) {
		resolved := resolve(baseDir, path)
		data, err := os.ReadFile(resolved)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				errs = append(errs, MissingReferencedPathError{Path: resolved})
				return
			}
			errs = append(errs, fmt.Errorf("read %s: %w", resolved, err))
			return
		}
		actual := expected.Algorithm().FromBytes(data)
		if actual != expected {
			errs = append(errs, DigestMismatchError{Path: resolved, Expected: expected, Actual: actual})
		}
	}
	check(manifest.Source.Path, manifest.Source.Digest)
	for _, output := range manifest.Outputs {
		check(output.Path, output.Digest)
	}
	return manifest, errors.Join(errs...)
}

func relativize(baseDir string, manifest Manifest) (Manifest, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return Manifest{}, fmt.Errorf("resolve manifest dir: %w", err)
	}
	rel := func(path string) (string, error) {
		if strings.TrimSpace(path) == "" {
			return path, nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", path, err)
		}
		out, err := filepath.Rel(absBase, abs)
		if err != nil {
			return abs, nil
		}
		return filepath.ToSlash(out), nil
	}

	normalized := manifest
	if normalized.Source.Path, err = rel(manifest.Source.Path); err != nil {
		return Manifest{}, err
	}
	normalized.Outputs = make([]Output, len(manifest.Outputs))
	for i, output := range manifest.Outputs {
		if output.Path, err = rel(output.Path); err != nil {
			return Manifest{}, err
		}
		normalized.Outputs[i] = output
	}
	return normalized, nil
}

func resolve(baseDir, path string) string {
	value := filepath.FromSlash(strings.TrimSpace(path))
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(baseDir, value)
}
