package taskdef

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

// ImageURI composes registry/name:tag for the primary container.
// A registry embedded in name is dropped in favour of registry; a tag embedded in
// name is used only when tag is empty.
func ImageURI(registry, name, tag string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("image name is required")
	}
	ref, err := reference.Parse(name)
	if err != nil {
		return "", fmt.Errorf("parse image name %q: %w", name, err)
	}
	named, ok := ref.(reference.Named)
	if !ok {
		return "", fmt.Errorf("image name %q has no repository", name)
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		if tagged, ok := named.(reference.Tagged); ok {
			tag = tagged.Tag()
		}
	}
	if tag == "" {
		return "", fmt.Errorf("image tag is required for %q", name)
	}

	uri := reference.Path(named) + ":" + tag
	if registry = strings.TrimRight(strings.TrimSpace(registry), "/"); registry != "" {
		uri = registry + "/" + uri
	}
	if _, err := reference.Parse(uri); err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", uri, err)
	}
	return uri, nil
}

// registryImage prefixes a sidecar image with the registry, leaving the tag as given.
func registryImage(registry, name string) string {
	registry = strings.TrimRight(strings.TrimSpace(registry), "/")
	name = strings.TrimSpace(name)
	if registry == "" {
		return name
	}
	return registry + "/" + name
}
