package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlatformPreset describes how much imagery a target platform's detail page
// consumes and the visual register its shoppers expect.
type PlatformPreset struct {
	Name        string `yaml:"name"`
	SceneCount  int    `yaml:"scene_count"`  // styled product scenes generated per run
	AspectRatio string `yaml:"aspect_ratio"` // passed to the image model
	StyleHint   string `yaml:"style_hint"`   // appended to every scene prompt
}

// The two supported platforms. Fixed presets; a YAML file can override the
// numbers for operational tuning but the set of platforms does not grow.
var defaultPresets = map[string]PlatformPreset{
	"coupang": {
		Name:        "coupang",
		SceneCount:  12,
		AspectRatio: "3:4",
		StyleHint:   "clean white studio background, information-dense Korean e-commerce detail cut",
	},
	"smartstore": {
		Name:        "smartstore",
		SceneCount:  8,
		AspectRatio: "1:1",
		StyleHint:   "warm lifestyle styling, soft natural light, minimal props",
	},
}

// Presets resolves platform presets, applying overrides from the configured
// YAML file when present.
type Presets struct {
	byPlatform map[string]PlatformPreset
}

// LoadPresets returns the built-in presets, overlaid with any overrides from
// path. An empty path skips the file entirely.
func LoadPresets(path string) (*Presets, error) {
	byPlatform := make(map[string]PlatformPreset, len(defaultPresets))
	for name, preset := range defaultPresets {
		byPlatform[name] = preset
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read preset file %s: %w", path, err)
		}
		var overrides map[string]PlatformPreset
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse preset file %s: %w", path, err)
		}
		for name, override := range overrides {
			base, ok := byPlatform[name]
			if !ok {
				return nil, fmt.Errorf("preset file %s names unknown platform %q", path, name)
			}
			if override.SceneCount > 0 {
				base.SceneCount = override.SceneCount
			}
			if override.AspectRatio != "" {
				base.AspectRatio = override.AspectRatio
			}
			if override.StyleHint != "" {
				base.StyleHint = override.StyleHint
			}
			byPlatform[name] = base
		}
	}

	return &Presets{byPlatform: byPlatform}, nil
}

// For returns the preset for a platform name.
func (p *Presets) For(platform string) (PlatformPreset, error) {
	preset, ok := p.byPlatform[platform]
	if !ok {
		return PlatformPreset{}, fmt.Errorf("unknown target platform %q", platform)
	}
	return preset, nil
}

// Platforms lists the supported platform names.
func (p *Presets) Platforms() []string {
	names := make([]string, 0, len(p.byPlatform))
	for name := range p.byPlatform {
		names = append(names, name)
	}
	return names
}
