package shader

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
)

// MaxModuleRetries is how many times a stage is recompiled after its module
// failed to be created. The failure after the last retry is final.
const MaxModuleRetries = 2

type Options struct {
	// CacheDir overrides the cache root. Ignored when Cache is set.
	CacheDir string
	Cache    *Cache
	// Compiler defaults to DefaultCompiler with glslc from PATH.
	Compiler      Compiler
	Optimize      bool
	ModuleRetries int
	Logger        logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		Optimize:      !gfx.DebugBuild,
		ModuleRetries: MaxModuleRetries,
	}
}

// Loader turns shader sources into modules through the bytecode cache.
type Loader struct {
	log      logrus.FieldLogger
	cache    *Cache
	compiler Compiler
	options  CompileOptions
	retries  int
}

func NewLoader(opts Options) (*Loader, error) {
	cache := opts.Cache
	if cache == nil {
		var err error
		cache, err = NewCache(opts.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	compiler := opts.Compiler
	if compiler == nil {
		compiler = DefaultCompiler("")
	}

	return &Loader{
		log:      logging.Or(opts.Logger, "shader"),
		cache:    cache,
		compiler: compiler,
		options:  CompileOptions{Optimize: opts.Optimize},
		retries:  max(opts.ModuleRetries, 0),
	}, nil
}

func (l *Loader) Cache() *Cache {
	return l.cache
}

// NewShader loads info with a loader built from DefaultOptions.
func NewShader(ctx *gfx.RenderContext, info ShaderCreateInfo) (*Shader, error) {
	loader, err := NewLoader(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, info)
}

// Bytecode returns the bytecode of every requested stage, from the cache
// where it is fresh and compiled (then cached) otherwise. No device is
// needed.
func (l *Loader) Bytecode(info ShaderCreateInfo) (map[Stage][]byte, error) {
	_, code, err := l.bytecode(info)
	return code, err
}

func (l *Loader) bytecode(info ShaderCreateInfo) (Source, map[Stage][]byte, error) {
	stages := info.OrderedStages()
	if len(stages) == 0 {
		return Source{}, nil, errors.Mark(errors.Newf("%s: no stages requested", info.Path), gfx.ErrResource)
	}

	src, err := ReadSource(info.Path, info.Language)
	if err != nil {
		return Source{}, nil, errors.Mark(err, gfx.ErrResource)
	}

	code := make(map[Stage][]byte, len(stages))
	for _, stage := range stages {
		bytecode, err := l.fetch(src, stage)
		if err != nil {
			return Source{}, nil, err
		}
		code[stage] = bytecode
	}
	return src, code, nil
}

func (l *Loader) fetch(src Source, stage Stage) ([]byte, error) {
	log := l.log.WithFields(logrus.Fields{"shader": src.Path, "stage": stage.String()})
	if src.Lang == SPIRV {
		return append([]byte(nil), src.Code...), nil
	}

	code, ok, err := l.cache.Load(src.Path, stage)
	if err != nil {
		log.WithError(err).Warn("shader cache unreadable, recompiling")
	} else if ok {
		log.Trace("read cached stage")
		return code, nil
	}

	log.Trace("recompiling stage")
	return l.compile(src, stage)
}

// compile bypasses the cache lookup but still refreshes the artifact.
func (l *Loader) compile(src Source, stage Stage) ([]byte, error) {
	log := l.log.WithFields(logrus.Fields{"shader": src.Path, "stage": stage.String()})

	start := hrtime.Now()
	code, err := l.compiler.Compile(src, stage, l.options)
	elapsed := hrtime.Now() - start
	if err != nil {
		err = errors.Wrapf(err, "compile %s stage of %s", stage, src.Path)
		return nil, errors.Mark(errors.Mark(err, ErrCompile), gfx.ErrResource)
	}
	log.WithFields(logrus.Fields{
		"bytes":   len(code),
		"elapsed": elapsed.Round(time.Microsecond).String(),
	}).Debug("compiled stage")

	if err := l.cache.Store(src.Path, stage, code); err != nil {
		log.WithError(err).Error("failed to write stage to shader cache")
	} else {
		log.Trace("cached stage")
	}
	return code, nil
}

// Load builds one module per requested stage. A module that fails to be
// created is recompiled, bypassing the cache, and retried. Either every
// stage gets a module or none is left behind.
func (l *Loader) Load(ctx *gfx.RenderContext, info ShaderCreateInfo) (*Shader, error) {
	if ctx.Destroyed() {
		return nil, errors.Mark(gfx.ErrContextDestroyed, gfx.ErrResource)
	}
	l.log.WithField("shader", info.Path).Debug("loading shader")

	src, code, err := l.bytecode(info)
	if err != nil {
		return nil, err
	}

	shared := ctx.Device()
	device := shared.Device()
	modules := make(map[Stage]driver.ShaderModule, len(code))
	built := false
	defer func() {
		if built {
			return
		}
		for _, module := range modules {
			module.Destroy()
		}
		shared.Release()
	}()

	for _, stage := range info.OrderedStages() {
		module, err := l.createModule(device, src, stage, code[stage])
		if err != nil {
			return nil, err
		}
		modules[stage] = module
	}

	built = true
	l.log.WithField("shader", info.Path).Debug("loaded shader")
	return &Shader{path: info.Path, device: shared, modules: modules}, nil
}

func (l *Loader) createModule(device driver.Device, src Source, stage Stage, code []byte) (driver.ShaderModule, error) {
	for attempt := 0; ; attempt++ {
		module, err := newModule(device, code)
		if err == nil {
			return module, nil
		}
		if attempt >= l.retries {
			err = errors.Wrapf(err, "create %s module of %s after %d attempts", stage, src.Path, attempt+1)
			return nil, errors.Mark(errors.Mark(err, ErrModuleCreation), gfx.ErrResource)
		}

		l.log.WithError(err).WithFields(logrus.Fields{
			"shader":  src.Path,
			"stage":   stage.String(),
			"attempt": attempt + 1,
		}).Error("shader module creation failed, recompiling")
		if src.Lang == SPIRV {
			continue
		}
		recompiled, err := l.compile(src, stage)
		if err != nil {
			l.log.WithError(err).Warn("recompile failed, retrying with previous bytecode")
			continue
		}
		code = recompiled
	}
}

func newModule(device driver.Device, code []byte) (driver.ShaderModule, error) {
	words, err := bytesToBytecode(code)
	if err != nil {
		return nil, err
	}
	return device.CreateShaderModule(words)
}

// bytesToBytecode reinterprets little-endian SPIR-V bytes as words.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidBytecode, "%d bytes", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	return byteCode, nil
}
