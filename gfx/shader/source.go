package shader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Language is the source language of a shader file.
type Language int

const (
	LanguageUnknown Language = iota
	GLSL
	HLSL
	WGSL
	// SPIRV is precompiled bytecode. It bypasses the compiler and the cache.
	SPIRV
)

func (l Language) String() string {
	switch l {
	case GLSL:
		return "glsl"
	case HLSL:
		return "hlsl"
	case WGSL:
		return "wgsl"
	case SPIRV:
		return "spirv"
	}
	return "unknown"
}

// ParseLanguage accepts the names String returns.
func ParseLanguage(name string) (Language, error) {
	for _, lang := range []Language{GLSL, HLSL, WGSL, SPIRV} {
		if strings.EqualFold(name, lang.String()) {
			return lang, nil
		}
	}
	return LanguageUnknown, errors.Wrapf(ErrUnsupportedLanguage, "language %q", name)
}

var extensionLanguages = map[string]Language{
	".glsl": GLSL,
	".vert": GLSL,
	".frag": GLSL,
	".comp": GLSL,
	".geom": GLSL,
	".hlsl": HLSL,
	".wgsl": WGSL,
	".spv":  SPIRV,
}

// DetectLanguage guesses the language from the file extension.
func DetectLanguage(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang, nil
	}
	return LanguageUnknown, errors.WithHint(
		errors.Wrapf(ErrUnsupportedLanguage, "extension %q of %s", ext, path),
		"use one of .glsl, .vert, .frag, .comp, .geom, .hlsl, .wgsl or .spv")
}

// Source is shader text, or raw bytecode for SPIRV.
type Source struct {
	Lang Language
	Path string
	Code []byte
}

func (s Source) Text() string {
	return string(s.Code)
}

// ReadSource reads path as lang. LanguageUnknown detects from the extension.
func ReadSource(path string, lang Language) (Source, error) {
	if lang == LanguageUnknown {
		detected, err := DetectLanguage(path)
		if err != nil {
			return Source{}, err
		}
		lang = detected
	}

	code, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "read shader source %s", path)
	}
	return Source{Lang: lang, Path: path, Code: code}, nil
}
