package taskdef

import (
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// Platform maps a task CPU architecture to the OCI platform the image must be built for.
func Platform(arch string) v1.Platform {
	platform := v1.Platform{OS: "linux", Architecture: "amd64"}
	if ecstypes.CPUArchitecture(arch) == ecstypes.CPUArchitectureArm64 {
		platform.Architecture = "arm64"
	}
	return platform
}

// PlatformString renders a platform in the os/arch form accepted by `docker buildx --platform`.
func PlatformString(platform v1.Platform) string {
	s := platform.OS + "/" + platform.Architecture
	if platform.Variant != "" {
		s += "/" + platform.Variant
	}
	return s
}
