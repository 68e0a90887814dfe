package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Window   WindowConfig   `mapstructure:"window"`
	Graphics GraphicsConfig `mapstructure:"graphics"`
	Shader   ShaderConfig   `mapstructure:"shader"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type WindowConfig struct {
	Title     string `mapstructure:"title"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	Centered  bool   `mapstructure:"centered"`
	Resizable bool   `mapstructure:"resizable"`
}

type GraphicsConfig struct {
	Validation      bool   `mapstructure:"validation"`
	DebugGeneral    bool   `mapstructure:"debug_general"`
	ApplicationName string `mapstructure:"application_name"`
}

type ShaderConfig struct {
	// CacheDir empty means tmp/res/shaders next to the executable.
	CacheDir      string `mapstructure:"cache_dir"`
	Optimize      bool   `mapstructure:"optimize"`
	ModuleRetries int    `mapstructure:"module_retries"`
	GlslcPath     string `mapstructure:"glslc_path"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:     "koyote",
			Width:     800,
			Height:    600,
			Centered:  true,
			Resizable: true,
		},
		Graphics: GraphicsConfig{
			Validation:      gfx.DebugBuild,
			DebugGeneral:    false,
			ApplicationName: "koyote",
		},
		Shader: ShaderConfig{
			Optimize:      !gfx.DebugBuild,
			ModuleRetries: shader.MaxModuleRetries,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load loads configuration from file, environment, and defaults. An empty
// cfgFile searches ~/.koyote and the working directory for config.yaml.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".koyote"))
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("KOYOTE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	cfg.ExpandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return cfg, nil
}

var validLevels = []string{"trace", "debug", "info", "warn", "error"}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Shader.ModuleRetries < 0 {
		return errors.New("shader.module_retries must not be negative")
	}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return errors.Newf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

// ExpandPaths expands ~ and environment variables in paths
func (c *Config) ExpandPaths() {
	c.Shader.CacheDir = expandPath(c.Shader.CacheDir)
	c.Shader.GlslcPath = expandPath(c.Shader.GlslcPath)
	c.Logging.File = expandPath(c.Logging.File)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// GraphicsOptions converts the graphics section for gfx.NewRenderContext.
func (c *Config) GraphicsOptions(log logrus.FieldLogger) gfx.Options {
	opts := gfx.DefaultOptions()
	opts.ApplicationName = c.Graphics.ApplicationName
	opts.Validation = c.Graphics.Validation
	opts.DebugGeneral = c.Graphics.DebugGeneral
	opts.Logger = log
	return opts
}

// ShaderOptions converts the shader section for shader.NewLoader.
func (c *Config) ShaderOptions(log logrus.FieldLogger) shader.Options {
	opts := shader.DefaultOptions()
	opts.CacheDir = c.Shader.CacheDir
	opts.Optimize = c.Shader.Optimize
	opts.ModuleRetries = c.Shader.ModuleRetries
	opts.Compiler = shader.DefaultCompiler(c.Shader.GlslcPath)
	opts.Logger = log
	return opts
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("window.title", cfg.Window.Title)
	v.SetDefault("window.width", cfg.Window.Width)
	v.SetDefault("window.height", cfg.Window.Height)
	v.SetDefault("window.centered", cfg.Window.Centered)
	v.SetDefault("window.resizable", cfg.Window.Resizable)

	v.SetDefault("graphics.validation", cfg.Graphics.Validation)
	v.SetDefault("graphics.debug_general", cfg.Graphics.DebugGeneral)
	v.SetDefault("graphics.application_name", cfg.Graphics.ApplicationName)

	v.SetDefault("shader.cache_dir", cfg.Shader.CacheDir)
	v.SetDefault("shader.optimize", cfg.Shader.Optimize)
	v.SetDefault("shader.module_retries", cfg.Shader.ModuleRetries)
	v.SetDefault("shader.glslc_path", cfg.Shader.GlslcPath)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
