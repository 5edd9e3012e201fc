package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds the contents of .mpath/config.yaml.
type ProjectConfig struct {
	Version            string   `yaml:"version"`
	SearchPath         []string `yaml:"search_path"`
	DependencyAnalysis bool     `yaml:"dependency_analysis"`
	ShowProgress       bool     `yaml:"show_progress"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	Exclude            []string `yaml:"exclude"`
}

// loadProjectConfig reads .mpath/config.yaml from the current directory.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile(".mpath/config.yaml")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSearchPath applies the fallback chain: explicit CLI paths win,
// otherwise fall back to the project config's search_path list.
func resolveSearchPath(flagPaths []string, cfg *ProjectConfig) []string {
	if len(flagPaths) > 0 {
		return flagPaths
	}
	if cfg != nil && len(cfg.SearchPath) > 0 {
		return cfg.SearchPath
	}
	return nil
}

func resolveBool(flagSet, flagValue bool, cfgValue bool) bool {
	if flagSet {
		return flagValue
	}
	return cfgValue
}

// resolveExclude merges CLI-supplied exclude globs with the project
// config's list; CLI entries are additive, not a replacement.
func resolveExclude(flagExcludes []string, cfg *ProjectConfig) []string {
	if cfg == nil {
		return flagExcludes
	}
	return append(append([]string{}, cfg.Exclude...), flagExcludes...)
}
