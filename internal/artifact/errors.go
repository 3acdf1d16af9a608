package artifact

import (
	"fmt"
	"strings"

	digest "github.com/opencontainers/go-digest"
)

type MissingReferencedPathError struct {
	Path string
}

func (e MissingReferencedPathError) Error() string {
	path := strings.TrimSpace(e.Path)
	if path == "" {
		return "referenced path not found"
	}
	return fmt.Sprintf("referenced path not found: %s", path)
}

// DigestMismatchError reports a file whose content no longer matches the manifest.
type DigestMismatchError struct {
	Path     string
	Expected digest.Digest
	Actual   digest.Digest
}

func (e DigestMismatchError) Error() string {
	return fmt.Sprintf("digest mismatch for %s: manifest has %s, file has %s", e.Path, e.Expected, e.Actual)
}
