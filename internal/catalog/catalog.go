// Package catalog loads the achievement definitions that get seeded into the
// database. The default set ships inside the binary; operators can point the
// admin tool at their own YAML file with the same shape.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sakif/taskquest/internal/model"
)

//go:embed achievements.yaml
var defaultCatalog []byte

// file is the on-disk shape of a catalog.
type file struct {
	Achievements []entry `yaml:"achievements"`
}

type entry struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Kind        string `yaml:"kind"`
	Threshold   int    `yaml:"threshold"`
}

// Default returns the built-in achievement definitions.
func Default() ([]model.Achievement, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and validates a catalog from disk.
func LoadFile(path string) ([]model.Achievement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes YAML catalog data and validates every entry. The returned
// achievements have no ID yet; IDs are assigned when they are seeded.
//
// Rules:
//   - key, name and kind are required, keys are unique
//   - level and streak entries need a positive threshold, and no two
//     entries of the same kind may share one
//   - at most one first_task entry
func Parse(data []byte) ([]model.Achievement, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decoding yaml: %w", err)
	}

	keys := make(map[string]bool)
	thresholds := make(map[model.AchievementKind]map[int]string)
	firstTask := ""

	out := make([]model.Achievement, 0, len(f.Achievements))
	for i, e := range f.Achievements {
		a := model.Achievement{
			Key:         strings.TrimSpace(e.Key),
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
			Icon:        strings.TrimSpace(e.Icon),
			Kind:        model.AchievementKind(strings.TrimSpace(e.Kind)),
			Threshold:   e.Threshold,
		}

		if a.Key == "" {
			return nil, fmt.Errorf("catalog: entry %d: key is required", i)
		}
		if keys[a.Key] {
			return nil, fmt.Errorf("catalog: duplicate key %q", a.Key)
		}
		keys[a.Key] = true

		if a.Name == "" {
			return nil, fmt.Errorf("catalog: %s: name is required", a.Key)
		}
		if !a.Kind.Valid() {
			return nil, fmt.Errorf("catalog: %s: unknown kind %q", a.Key, a.Kind)
		}

		switch a.Kind {
		case model.KindFirstTask:
			if firstTask != "" {
				return nil, fmt.Errorf("catalog: %s: first_task already defined by %s", a.Key, firstTask)
			}
			firstTask = a.Key
			a.Threshold = 1
		default:
			if a.Threshold < 1 {
				return nil, fmt.Errorf("catalog: %s: threshold must be positive", a.Key)
			}
			if thresholds[a.Kind] == nil {
				thresholds[a.Kind] = make(map[int]string)
			}
			if other, ok := thresholds[a.Kind][a.Threshold]; ok {
				return nil, fmt.Errorf("catalog: %s: %s threshold %d already used by %s", a.Key, a.Kind, a.Threshold, other)
			}
			thresholds[a.Kind][a.Threshold] = a.Key
		}

		out = append(out, a)
	}

	return out, nil
}
