package sexbatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "default.sex"
	DefaultParamFile  = "default.param"
	DefaultOutputDir  = "catalogs"
	DefaultSettings   = "sexbatch.yaml"
)

// Settings configures a batch run. Zero values fall back to the defaults.
type Settings struct {
	Dir         string `yaml:"dir"`
	Tool        string `yaml:"tool"`
	ConfigFile  string `yaml:"config_file"`
	ParamFile   string `yaml:"param_file"`
	OutputDir   string `yaml:"output_dir"`
	SkipWeights bool   `yaml:"skip_weights"`
	Preview     bool   `yaml:"preview"`
}

// WithDefaults returns s with empty fields set to their defaults.
func (s Settings) WithDefaults() Settings {
	if s.Dir == "" {
		s.Dir = "."
	}
	if s.ConfigFile == "" {
		s.ConfigFile = DefaultConfigFile
	}
	if s.ParamFile == "" {
		s.ParamFile = DefaultParamFile
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	return s
}

// LoadSettings reads a YAML settings file. A missing file yields the
// defaults; a malformed one is an error.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.WithDefaults(), nil
	}
	if err != nil {
		return s, fmt.Errorf("reading settings %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return s.WithDefaults(), nil
}
