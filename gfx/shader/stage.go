package shader

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// Stage is one programmable pipeline stage.
type Stage int

const (
	Vertex Stage = iota
	Fragment
	Compute
	Geometry
)

// Stages lists every stage in canonical order. Shaders are compiled and
// their modules created in this order.
var Stages = []Stage{Vertex, Fragment, Compute, Geometry}

var stageNames = map[Stage]string{
	Vertex:   "vertex",
	Fragment: "fragment",
	Compute:  "compute",
	Geometry: "geometry",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// EntryPoint is the function name every shader source must export for s.
func (s Stage) EntryPoint() string {
	return s.String() + "_main"
}

func (s Stage) Flags() core1_0.ShaderStageFlags {
	switch s {
	case Vertex:
		return core1_0.StageVertex
	case Fragment:
		return core1_0.StageFragment
	case Compute:
		return core1_0.StageCompute
	case Geometry:
		return core1_0.StageGeometry
	}
	return 0
}

// glslcName is the -fshader-stage value for s.
func (s Stage) glslcName() string {
	switch s {
	case Vertex:
		return "vert"
	case Fragment:
		return "frag"
	case Compute:
		return "comp"
	case Geometry:
		return "geom"
	}
	return ""
}

// ParseStage accepts the names printed by String plus the short glslc forms.
func ParseStage(name string) (Stage, error) {
	for _, stage := range Stages {
		if name == stage.String() || name == stage.glslcName() {
			return stage, nil
		}
	}
	return 0, errors.Newf("unknown shader stage %q", name)
}
