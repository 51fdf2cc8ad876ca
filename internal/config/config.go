// Package config loads scoreclip settings from an optional YAML file, with
// command-line flags layered on top by the CLI.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OutputDir string     `yaml:"output_dir"`
	MakeReel  bool       `yaml:"make_reel"`
	Clip      ClipConfig `yaml:"clip"`
}

type ClipConfig struct {
	PreSeconds      float64 `yaml:"pre_seconds"`
	PostSeconds     float64 `yaml:"post_seconds"`
	MergeGapSeconds float64 `yaml:"merge_gap_seconds"`
	MinClipSeconds  float64 `yaml:"min_clip_seconds"`
	MaxClipSeconds  float64 `yaml:"max_clip_seconds"`
}

// Load reads configuration from path, searching the usual locations when
// path is empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		OutputDir: "outputs",
		MakeReel:  true,
		Clip: ClipConfig{
			PreSeconds:      6.0,
			PostSeconds:     4.0,
			MergeGapSeconds: 2.0,
			MinClipSeconds:  2.0,
			MaxClipSeconds:  30.0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./scoreclip.yaml",
		"./scoreclip.yml",
		filepath.Join(os.Getenv("HOME"), ".replaycut", "scoreclip.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
