package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPlotWidth  = 70
	DefaultPlotHeight = 16
	DefaultFrameRate  = 30
)

// Config holds the CLI's settings. Everything here concerns the front
// end; the language core takes no configuration.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	PlotWidth  int    `yaml:"plot_width"`
	PlotHeight int    `yaml:"plot_height"`
	FrameRate  int    `yaml:"frame_rate"`
	Output     string `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:    ".kinetic",
		PlotWidth:  DefaultPlotWidth,
		PlotHeight: DefaultPlotHeight,
		FrameRate:  DefaultFrameRate,
		Output:     "text",
	}
}

// DefaultPath is the config location used when --config is not given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kinetic", "config.yaml")
}

// Load reads a config file over the defaults. A missing file is not an
// error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
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

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
