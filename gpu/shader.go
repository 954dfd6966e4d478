package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/label.wgsl
var labelShaderWGSL string

// Entry points of the label shader.
const (
	LabelVertexEntry   = "vs_main"
	LabelFragmentEntry = "fs_main"
)

// LabelShaderSource returns the WGSL source of the label shader.
func LabelShaderSource() string { return labelShaderWGSL }

// CompileLabelShader compiles the label shader to SPIR-V words.
func CompileLabelShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(labelShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile label shader: %w", err)
	}
	// SPIR-V is a stream of little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// CreateLabelShaderModule compiles the label shader and creates a module
// for it on device.
func CreateLabelShaderModule(device hal.Device) (hal.ShaderModule, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	code, err := CompileLabelShader()
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "labelmesh-label",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create label shader module: %w", err)
	}
	return module, nil
}
