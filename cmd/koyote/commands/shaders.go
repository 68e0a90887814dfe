package commands

import (
	"fmt"

	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/spf13/cobra"
)

var (
	shaderStages   []string
	shaderLanguage string
)

var shadersCmd = &cobra.Command{
	Use:   "shaders",
	Short: "Manage compiled shader bytecode",
}

var shadersCompileCmd = &cobra.Command{
	Use:   "compile <path>",
	Short: "Compile a shader into the bytecode cache",
	Long: `Compile the requested stages of a shader source and store the
bytecode in the shader cache. Stages whose cached bytecode is newer than
the executable are reused as is.`,
	Args: cobra.ExactArgs(1),
	RunE: runShadersCompile,
}

func init() {
	shadersCompileCmd.Flags().StringSliceVarP(&shaderStages, "stage", "s", []string{"vertex", "fragment"}, "stages to compile")
	shadersCompileCmd.Flags().StringVar(&shaderLanguage, "lang", "", "source language (default is detected from the extension)")
	shadersCmd.AddCommand(shadersCompileCmd)
	rootCmd.AddCommand(shadersCmd)
}

func runShadersCompile(cmd *cobra.Command, args []string) error {
	info, err := compileInfo(args[0], shaderStages, shaderLanguage)
	if err != nil {
		return err
	}

	loader, err := shader.NewLoader(cfg.ShaderOptions(logging.Component("shaders")))
	if err != nil {
		return err
	}

	code, err := loader.Bytecode(info)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, stage := range info.OrderedStages() {
		fmt.Fprintf(out, "%-9s %6d bytes  %s\n", stage, len(code[stage]), loader.Cache().Path(info.Path, stage))
	}
	return nil
}

func compileInfo(path string, stageNames []string, language string) (shader.ShaderCreateInfo, error) {
	stages := make([]shader.Stage, 0, len(stageNames))
	for _, name := range stageNames {
		stage, err := shader.ParseStage(name)
		if err != nil {
			return shader.ShaderCreateInfo{}, err
		}
		stages = append(stages, stage)
	}

	builder := shader.NewShaderBuilder(path).WithStages(stages...)
	if language != "" {
		lang, err := shader.ParseLanguage(language)
		if err != nil {
			return shader.ShaderCreateInfo{}, err
		}
		builder = builder.WithLanguage(lang)
	}
	return shader.CreateInfo(builder), nil
}
