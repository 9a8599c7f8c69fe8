package console

import (
	_ "embed"
	"fmt"

	"github.com/ougirez/sisagua/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

func loadPresets() ([]domain.Preset, error) {
	var presets []domain.Preset
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	seen := make(map[string]struct{}, len(presets))
	for _, p := range presets {
		if p.Name == "" || p.SQL == "" {
			return nil, fmt.Errorf("preset %q: name and sql are required", p.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	return presets, nil
}
