// Package shader compiles shader sources to SPIR-V, caches the bytecode on
// disk and creates one native module per stage.
package shader

import (
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
)

// Shader holds exactly one module per requested stage.
type Shader struct {
	path    string
	device  *gfx.SharedDevice
	modules map[Stage]driver.ShaderModule
}

func (s *Shader) Path() string {
	return s.path
}

func (s *Shader) HasStage(stage Stage) bool {
	_, ok := s.modules[stage]
	return ok
}

func (s *Shader) Module(stage Stage) driver.ShaderModule {
	return s.modules[stage]
}

// StageInfos describes every module, in canonical stage order, for
// pipeline creation.
func (s *Shader) StageInfos() []driver.ShaderStage {
	var infos []driver.ShaderStage
	for _, stage := range Stages {
		module, ok := s.modules[stage]
		if !ok {
			continue
		}
		infos = append(infos, driver.ShaderStage{
			Stage:      stage.Flags(),
			Module:     module,
			EntryPoint: stage.EntryPoint(),
		})
	}
	return infos
}

// Destroy releases every module, then the device reference. Calling it
// again is a no-op.
func (s *Shader) Destroy() {
	if s.modules == nil {
		return
	}
	for _, module := range s.modules {
		module.Destroy()
	}
	s.modules = nil
	s.device.Release()
}
