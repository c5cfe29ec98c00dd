package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// optionsFile is the HCL schema of an options file:
//
//	clockers    = ["*.clk", "TOP.sys.clock"]
//	no_clockers = ["*.data"]
type optionsFile struct {
	Clockers   []string `hcl:"clockers,optional"`
	NoClockers []string `hcl:"no_clockers,optional"`
}

// LoadFile reads and compiles an HCL options file.
func LoadFile(path string) (*Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, diags)
	}

	var raw optionsFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode options file %s: %w", path, diags)
	}

	return New(raw.Clockers, raw.NoClockers)
}
