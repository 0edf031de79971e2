package scene

import (
	"github.com/silentbridge/signavatar/engine/light"
	"github.com/silentbridge/signavatar/engine/loader"
)

// StageBuilderOption is a functional option applied to a stage during construction via NewStage.
type StageBuilderOption func(*stage)

// WithImporter replaces the stage's asset importer.
//
// Parameters:
//   - imp: the importer to use for model and action files
//
// Returns:
//   - StageBuilderOption: a function that applies the importer option to a stage
func WithImporter(imp loader.Importer) StageBuilderOption {
	return func(s *stage) {
		if imp != nil {
			s.importer = imp
		}
	}
}

// WithAmbientLight sets the ambient fill light.
//
// Parameters:
//   - ambient: the fill light to use
//
// Returns:
//   - StageBuilderOption: a function that applies the ambient light option to a stage
func WithAmbientLight(ambient light.Ambient) StageBuilderOption {
	return func(s *stage) {
		s.ambient = ambient
	}
}

// WithKeyLight sets the directional key light.
//
// Parameters:
//   - key: the directional light to use
//
// Returns:
//   - StageBuilderOption: a function that applies the key light option to a stage
func WithKeyLight(key light.Directional) StageBuilderOption {
	return func(s *stage) {
		s.key = key
	}
}

// WithBackground sets the initial background color without easing.
//
// Parameters:
//   - r, g, b: the color components in [0, 1]
//
// Returns:
//   - StageBuilderOption: a function that applies the background option to a stage
func WithBackground(r, g, b float32) StageBuilderOption {
	return func(s *stage) {
		s.background = [3]float32{r, g, b}
	}
}
