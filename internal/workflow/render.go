package workflow

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatSAM       Format = "sam"
	FormatTerraform Format = "terraform"
)

// Formats lists the supported output dialects in render order.
var Formats = []Format{FormatTerraform, FormatSAM}

// FileName is the conventional output file name of a dialect.
func (f Format) FileName() string {
	switch f {
	case FormatTerraform:
		return "main.tf"
	case FormatSAM:
		return "template.yaml"
	default:
		return ""
	}
}

// ParseFormats resolves a selector ("sam", "terraform" or "all") into dialects.
func ParseFormats(selector string) ([]Format, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", "all":
		return append([]Format(nil), Formats...), nil
	case string(FormatSAM):
		return []Format{FormatSAM}, nil
	case string(FormatTerraform), "tf":
		return []Format{FormatTerraform}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (supported: sam, terraform, all)", selector)
	}
}

// Render renders the template in the given dialect.
func Render(t Template, format Format) ([]byte, error) {
	switch format {
	case FormatSAM:
		return RenderSAM(t)
	case FormatTerraform:
		return RenderTerraform(t)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
