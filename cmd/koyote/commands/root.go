package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/internal/config"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "koyote",
	Short: "A Vulkan rendering core",
	Long: `Koyote opens a window, brings up a Vulkan device and builds graphics
pipelines from GLSL, HLSL, WGSL or SPIR-V shaders, caching compiled
bytecode next to the executable.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command. Failures are printed with their hints,
// and with stack traces in verbose mode.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.koyote/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		loaded.Logging.Level = "debug"
	}
	if err := logging.Init(loaded.Logging.Level, loaded.Logging.File, loaded.Logging.Console); err != nil {
		return err
	}
	cfg = loaded
	return nil
}
