package taskdef

import "testing"

func TestImageURI(t *testing.T) {
	tests := []struct {
		name     string
		registry string
		image    string
		tag      string
		want     string
	}{
		{
			name:     "registry name and tag",
			registry: "123456789012.dkr.ecr.us-east-1.amazonaws.com",
			image:    "app",
			tag:      "abc123",
			want:     "123456789012.dkr.ecr.us-east-1.amazonaws.com/app:abc123",
		},
		{
			name:     "registry embedded in image name is replaced",
			registry: "registry.example.com/",
			image:    "old.example.com/team/app",
			tag:      "v1",
			want:     "registry.example.com/team/app:v1",
		},
		{
			name:     "embedded tag used when tag empty",
			registry: "registry.example.com",
			image:    "app:from-name",
			tag:      "",
			want:     "registry.example.com/app:from-name",
		},
		{
			name:     "explicit tag wins over embedded tag",
			registry: "registry.example.com",
			image:    "app:from-name",
			tag:      "from-flag",
			want:     "registry.example.com/app:from-flag",
		},
		{
			name:  "no registry",
			image: "team/app",
			tag:   "latest",
			want:  "team/app:latest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageURI(tt.registry, tt.image, tt.tag)
			if err != nil {
				t.Fatalf("ImageURI returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ImageURI(%q, %q, %q) = %q, want %q", tt.registry, tt.image, tt.tag, got, tt.want)
			}
		})
	}
}

func TestImageURIRejectsInvalidInput(t *testing.T) {
	if _, err := ImageURI("registry.example.com", "", "v1"); err == nil {
		t.Fatalf("expected error for empty image name")
	}
	if _, err := ImageURI("registry.example.com", "App", "v1"); err == nil {
		t.Fatalf("expected error for uppercase image name")
	}
	if _, err := ImageURI("registry.example.com", "app", ""); err == nil {
		t.Fatalf("expected error for missing tag")
	}
	if _, err := ImageURI("registry.example.com", "app", "bad tag"); err == nil {
		t.Fatalf("expected error for invalid tag")
	}
}

func TestPlatform(t *testing.T) {
	if got := PlatformString(Platform("ARM64")); got != "linux/arm64" {
		t.Fatalf("unexpected arm platform: %s", got)
	}
	if got := PlatformString(Platform("X86_64")); got != "linux/amd64" {
		t.Fatalf("unexpected x86 platform: %s", got)
	}
}
