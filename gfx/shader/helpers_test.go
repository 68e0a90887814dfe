package shader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/driver/drivertest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// spirvWords is two little-endian words: the SPIR-V magic and a version.
var spirvWords = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

type mockCompiler struct {
	mock.Mock
}

func (m *mockCompiler) Compile(src Source, stage Stage, opts CompileOptions) ([]byte, error) {
	args := m.Called(src, stage, opts)
	code, _ := args.Get(0).([]byte)
	return code, args.Error(1)
}

type env struct {
	dir      string
	exe      string
	source   string
	cache    *Cache
	compiler *mockCompiler
	loader   *Loader
	driver   *drivertest.Loader
	ctx      *gfx.RenderContext
	hook     *test.Hook
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	exe := filepath.Join(dir, "koyote")
	require.NoError(t, os.WriteFile(exe, []byte("binary"), 0o755))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(exe, past, past))

	source := filepath.Join(dir, "simple.wgsl")
	require.NoError(t, os.WriteFile(source, []byte("fn vertex_main() {}\nfn fragment_main() {}\n"), 0o644))

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)

	e := &env{
		dir:      dir,
		exe:      exe,
		source:   source,
		cache:    NewCacheFor(filepath.Join(dir, "cache"), exe),
		compiler: &mockCompiler{},
		hook:     hook,
	}

	loader, err := NewLoader(Options{
		Cache:         e.cache,
		Compiler:      e.compiler,
		ModuleRetries: MaxModuleRetries,
		Logger:        log,
	})
	require.NoError(t, err)
	e.loader = loader
	return e
}

// context creates a render context on a fake adapter.
func (e *env) context(t *testing.T) *gfx.RenderContext {
	t.Helper()
	e.driver = drivertest.NewLoader(drivertest.NewPhysicalDevice("gpu", driver.DeviceTypeDiscreteGPU))
	opts := gfx.DefaultOptions()
	opts.Logger, _ = test.NewNullLogger()
	ctx, err := gfx.NewRenderContext(e.driver, drivertest.NewWindow(), opts)
	require.NoError(t, err)
	e.ctx = ctx
	return ctx
}

func (e *env) info(stages ...Stage) ShaderCreateInfo {
	return CreateInfo(NewShaderBuilder(e.source).WithStages(stages...))
}

func (e *env) requireNoLeaks(t *testing.T) {
	t.Helper()
	e.ctx.Destroy()
	require.Empty(t, e.driver.Leaks())
	require.Zero(t, e.driver.DoubleDestroys())
}
