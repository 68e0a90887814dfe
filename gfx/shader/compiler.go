package shader

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

type CompileOptions struct {
	// Optimize asks for performance optimization. Only release builds set
	// it by default.
	Optimize bool
}

// Compiler turns one stage of a source into SPIR-V bytecode.
type Compiler interface {
	Compile(src Source, stage Stage, opts CompileOptions) ([]byte, error)
}

// NagaCompiler compiles WGSL in process. The module it returns carries every
// entry point of the source, but the source must declare stage's entry point
// for that stage. Unoptimized builds keep naga's debug names in the output.
type NagaCompiler struct{}

func (NagaCompiler) Compile(src Source, stage Stage, opts CompileOptions) ([]byte, error) {
	if src.Lang != WGSL {
		return nil, errors.Wrapf(ErrUnsupportedLanguage, "naga compiles wgsl, not %s", src.Lang)
	}
	text := src.Text()

	ast, err := naga.Parse(text)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse %s", src.Path), ErrCompile)
	}
	module, err := naga.LowerWithSource(ast, text)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "lower %s", src.Path), ErrCompile)
	}
	if err := requireEntryPoint(module, stage); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", src.Path), ErrCompile)
	}

	invalid, err := naga.Validate(module)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "validate %s", src.Path), ErrCompile)
	}
	if len(invalid) > 0 {
		return nil, errors.Mark(errors.Wrapf(&invalid[0], "validate %s", src.Path), ErrCompile)
	}

	code, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: spirv.Version1_3,
		Debug:   !opts.Optimize,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "compile %s", src.Path), ErrCompile)
	}
	return code, nil
}

var nagaStages = map[Stage]ir.ShaderStage{
	Vertex:   ir.StageVertex,
	Fragment: ir.StageFragment,
	Compute:  ir.StageCompute,
}

func requireEntryPoint(module *ir.Module, stage Stage) error {
	want, ok := nagaStages[stage]
	if !ok {
		return errors.Newf("wgsl has no %s stage", stage)
	}
	for _, entry := range module.EntryPoints {
		if entry.Name == stage.EntryPoint() && entry.Stage == want {
			return nil
		}
	}
	return errors.Newf("no %s entry point %s", stage, stage.EntryPoint())
}

// GlslcCompiler runs the glslc executable from the Vulkan SDK for GLSL and
// HLSL sources.
type GlslcCompiler struct {
	// Path defaults to glslc on PATH.
	Path string
}

func (g GlslcCompiler) binary() (string, error) {
	name := g.Path
	if name == "" {
		name = "glslc"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.WithHint(
			errors.Wrapf(err, "locate %s", name),
			"install the Vulkan SDK or set shader.glslc_path")
	}
	return path, nil
}

func (g GlslcCompiler) args(src Source, stage Stage, opts CompileOptions) ([]string, error) {
	var lang string
	switch src.Lang {
	case GLSL:
		lang = "glsl"
	case HLSL:
		lang = "hlsl"
	default:
		return nil, errors.Wrapf(ErrUnsupportedLanguage, "glslc compiles glsl and hlsl, not %s", src.Lang)
	}

	args := []string{
		"-x", lang,
		"-fshader-stage=" + stage.glslcName(),
		"-fentry-point=" + stage.EntryPoint(),
	}
	if opts.Optimize {
		args = append(args, "-O")
	} else {
		args = append(args, "-O0")
	}
	return append(args, "-o", "-", "-"), nil
}

func (g GlslcCompiler) Compile(src Source, stage Stage, opts CompileOptions) ([]byte, error) {
	args, err := g.args(src, stage, opts)
	if err != nil {
		return nil, err
	}
	binary, err := g.binary()
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(binary, args...)
	cmd.Stdin = bytes.NewReader(src.Code)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "glslc %s (%s): %s", src.Path, stage, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// MultiCompiler dispatches on the source language.
type MultiCompiler map[Language]Compiler

// DefaultCompiler uses naga for WGSL and glslc at glslcPath for GLSL and
// HLSL.
func DefaultCompiler(glslcPath string) MultiCompiler {
	glslc := GlslcCompiler{Path: glslcPath}
	return MultiCompiler{
		WGSL: NagaCompiler{},
		GLSL: glslc,
		HLSL: glslc,
	}
}

func (m MultiCompiler) Compile(src Source, stage Stage, opts CompileOptions) ([]byte, error) {
	compiler, ok := m[src.Lang]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedLanguage, "no compiler for %s", src.Lang)
	}
	return compiler.Compile(src, stage, opts)
}
