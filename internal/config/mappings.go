package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type mappingFilePayload struct {
	Locomotion map[string]string `yaml:"locomotion"`
	Expression map[string]string `yaml:"expression"`
	Gaze       map[string]string `yaml:"gaze"`
}

// LoadMappingFile reads a standalone yaml mapping file whose entries
// override the built-in tables per token.
func LoadMappingFile(path string) (MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MappingConfig{}, err
	}
	var payload mappingFilePayload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return MappingConfig{}, err
	}
	return MappingConfig{
		Locomotion: payload.Locomotion,
		Expression: payload.Expression,
		Gaze:       payload.Gaze,
	}, nil
}
