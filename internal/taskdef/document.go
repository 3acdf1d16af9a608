// Where: internal/taskdef/document.go
// What: Task definition document shapes.
// Why: Mirror the register-task-definition JSON input field for field.
package taskdef

import (
	"bytes"
	"encoding/json"

	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// Document is the JSON accepted by `aws ecs register-task-definition --cli-input-json`.
type Document struct {
	Family                  string                   `json:"family"`
	ContainerDefinitions    []ContainerDefinition    `json:"containerDefinitions"`
	CPU                     string                   `json:"cpu"`
	Memory                  string                   `json:"memory"`
	RuntimePlatform         RuntimePlatform          `json:"runtimePlatform"`
	TaskRoleARN             string                   `json:"taskRoleArn,omitempty"`
	ExecutionRoleARN        string                   `json:"executionRoleArn,omitempty"`
	NetworkMode             ecstypes.NetworkMode     `json:"networkMode"`
	RequiresCompatibilities []ecstypes.Compatibility `json:"requiresCompatibilities"`
	Volumes                 []Volume                 `json:"volumes,omitempty"`
}

type RuntimePlatform struct {
	CPUArchitecture       ecstypes.CPUArchitecture `json:"cpuArchitecture"`
	OperatingSystemFamily ecstypes.OSFamily        `json:"operatingSystemFamily"`
}

// ContainerDefinition always carries environment and secrets, empty when unset.
type ContainerDefinition struct {
	Name                  string                 `json:"name"`
	Image                 string                 `json:"image"`
	Essential             bool                   `json:"essential"`
	EntryPoint            []string               `json:"entryPoint,omitempty"`
	Command               []string               `json:"command,omitempty"`
	Environment           []KeyValuePair         `json:"environment"`
	Secrets               []Secret               `json:"secrets"`
	PortMappings          []PortMapping          `json:"portMappings,omitempty"`
	MountPoints           []MountPoint           `json:"mountPoints,omitempty"`
	DependsOn             []ContainerDependency  `json:"dependsOn,omitempty"`
	HealthCheck           *HealthCheck           `json:"healthCheck,omitempty"`
	LogConfiguration      *LogConfiguration      `json:"logConfiguration,omitempty"`
	FirelensConfiguration *FirelensConfiguration `json:"firelensConfiguration,omitempty"`
}

type KeyValuePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Secret struct {
	Name      string `json:"name"`
	ValueFrom string `json:"valueFrom"`
}

type PortMapping struct {
	Name          string                       `json:"name"`
	ContainerPort int                          `json:"containerPort"`
	HostPort      int                          `json:"hostPort"`
	Protocol      ecstypes.TransportProtocol   `json:"protocol"`
	AppProtocol   ecstypes.ApplicationProtocol `json:"appProtocol,omitempty"`
}

type MountPoint struct {
	SourceVolume  string `json:"sourceVolume"`
	ContainerPath string `json:"containerPath"`
}

type ContainerDependency struct {
	ContainerName string                      `json:"containerName"`
	Condition     ecstypes.ContainerCondition `json:"condition"`
}

type HealthCheck struct {
	Command     []string `json:"command"`
	Interval    int      `json:"interval"`
	Timeout     int      `json:"timeout"`
	Retries     int      `json:"retries"`
	StartPeriod int      `json:"startPeriod"`
}

type LogConfiguration struct {
	LogDriver ecstypes.LogDriver `json:"logDriver"`
	Options   map[string]string  `json:"options"`
}

type FirelensConfiguration struct {
	Type    ecstypes.FirelensConfigurationType `json:"type"`
	Options map[string]string                  `json:"options,omitempty"`
}

type Volume struct {
	Name string      `json:"name"`
	Host *HostVolume `json:"host,omitempty"`
}

// HostVolume renders as {} to request a task-scoped bind mount.
type HostVolume struct{}

// Container returns the named container definition.
func (d Document) Container(name string) (ContainerDefinition, bool) {
	for _, container := range d.ContainerDefinitions {
		if container.Name == name {
			return container, true
		}
	}
	return ContainerDefinition{}, false
}

// MarshalIndent renders the document as indented JSON with a trailing newline.
func (d Document) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
