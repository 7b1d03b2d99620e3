package config

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings tunes hierarchy discovery and classification. Defaults match the
// export patterns of the tools we have seen caches from (SynthEyes, Nuke,
// Maya, Houdini, Blender); unseen tools can override via yaml without code
// changes.
type Settings struct {
	// ShapeSearchDepth bounds recursive shape discovery below a transform.
	ShapeSearchDepth int `yaml:"shape_search_depth"`

	// GenericShapeNames never become identities; the enclosing transform
	// names the node instead.
	GenericShapeNames []string `yaml:"generic_shape_names"`

	// SkipNames are well-known scene-root / DCC boilerplate wrapper names
	// treated as organizational even when they hold a sample.
	SkipNames []string `yaml:"skip_names"`

	// SkipNamePrefixes extend SkipNames for generated names (ReadGeo1,
	// Scene_2, ...).
	SkipNamePrefixes []string `yaml:"skip_name_prefixes"`

	// Tolerance for vertex/transform comparison.
	Tolerance float64 `yaml:"tolerance"`

	DefaultFPS float64 `yaml:"default_fps"`
}

func DefaultSettings() Settings {
	return Settings{
		ShapeSearchDepth:  2,
		GenericShapeNames: []string{"mesh", "object", "geometry", "shape", "polymesh"},
		SkipNames:         []string{"root", "world", "persp", "top", "front", "side", "Meshes", "Cameras"},
		SkipNamePrefixes:  []string{"ReadGeo", "Scene"},
		Tolerance:         0.0001,
		DefaultFPS:        24.0,
	}
}

var current = DefaultSettings()

func Current() Settings { return current }

func SetSettings(s Settings) {
	if s.ShapeSearchDepth <= 0 {
		s.ShapeSearchDepth = DefaultSettings().ShapeSearchDepth
	}
	if s.Tolerance <= 0 {
		s.Tolerance = DefaultSettings().Tolerance
	}
	if s.DefaultFPS <= 0 {
		s.DefaultFPS = DefaultSettings().DefaultFPS
	}
	current = s
}

func LoadSettings(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read config %q", path)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "Failed to parse config %q", path)
	}
	SetSettings(s)
	return nil
}

// IsGenericShapeName matches case-insensitively; tools differ on casing of
// their placeholder names.
func IsGenericShapeName(name string) bool {
	if name == "" {
		return true
	}
	for _, generic := range current.GenericShapeNames {
		if strings.EqualFold(name, generic) {
			return true
		}
	}
	return false
}

// IsBoilerplateName matches the well-known wrapper names. Such nodes are
// organizational regardless of structure: discovery folds through them and
// they never name or own content.
func IsBoilerplateName(name string) bool {
	for _, skip := range current.SkipNames {
		if name == skip {
			return true
		}
	}
	for _, prefix := range current.SkipNamePrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// IsSkipName matches helper content that never converts; shapes under these
// nodes are dropped outright, not folded.
func IsSkipName(name string) bool {
	// tracker group nodes ("Camera01Trackers") are helper containers, while
	// individual trackers ("Tracker12") are real locators
	if strings.Contains(name, "Trackers") && !strings.HasPrefix(name, "Tracker") {
		return true
	}
	if strings.Contains(name, "Screen") {
		return true
	}
	return false
}
