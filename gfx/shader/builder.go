package shader

// Builder type states. Only a builder with at least one stage can be built.
type (
	StagesMissing   struct{}
	StagesSpecified struct{}
)

// ShaderCreateInfo names a source file and the stages to build from it.
type ShaderCreateInfo struct {
	Path string
	// Language is detected from Path when left unknown.
	Language Language
	Stages   map[Stage]struct{}
}

func (i ShaderCreateInfo) HasStage(stage Stage) bool {
	_, ok := i.Stages[stage]
	return ok
}

// OrderedStages returns the requested stages in canonical order.
func (i ShaderCreateInfo) OrderedStages() []Stage {
	var stages []Stage
	for _, stage := range Stages {
		if i.HasStage(stage) {
			stages = append(stages, stage)
		}
	}
	return stages
}

// ShaderSource is the source of every requested stage of one file.
type ShaderSource struct {
	Path   string
	Stages map[Stage]Source
}

func (s ShaderSource) HasStage(stage Stage) bool {
	_, ok := s.Stages[stage]
	return ok
}

type ShaderBuilder[S any] struct {
	path     string
	language Language
	stages   map[Stage]struct{}
}

func NewShaderBuilder(path string) ShaderBuilder[StagesMissing] {
	return ShaderBuilder[StagesMissing]{path: path, stages: map[Stage]struct{}{}}
}

// WithLanguage overrides extension based detection.
func (b ShaderBuilder[S]) WithLanguage(lang Language) ShaderBuilder[S] {
	b.language = lang
	return b
}

func (b ShaderBuilder[S]) WithStage(stage Stage) ShaderBuilder[StagesSpecified] {
	return b.WithStages(stage)
}

func (b ShaderBuilder[S]) WithStages(stages ...Stage) ShaderBuilder[StagesSpecified] {
	merged := make(map[Stage]struct{}, len(b.stages)+len(stages))
	for stage := range b.stages {
		merged[stage] = struct{}{}
	}
	for _, stage := range stages {
		merged[stage] = struct{}{}
	}
	return ShaderBuilder[StagesSpecified]{path: b.path, language: b.language, stages: merged}
}

// CreateInfo returns what a Loader needs to build the shader.
func CreateInfo(b ShaderBuilder[StagesSpecified]) ShaderCreateInfo {
	stages := make(map[Stage]struct{}, len(b.stages))
	for stage := range b.stages {
		stages[stage] = struct{}{}
	}
	return ShaderCreateInfo{Path: b.path, Language: b.language, Stages: stages}
}

// Build reads the source once and assigns it to every requested stage.
func Build(b ShaderBuilder[StagesSpecified]) (ShaderSource, error) {
	source, err := ReadSource(b.path, b.language)
	if err != nil {
		return ShaderSource{}, err
	}

	stages := make(map[Stage]Source, len(b.stages))
	for stage := range b.stages {
		stages[stage] = source
	}
	return ShaderSource{Path: b.path, Stages: stages}, nil
}
