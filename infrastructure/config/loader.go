package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileLoader decodes one configuration file format
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extensions() []string
}

// Loader layers defaults, an optional config file and environment variables
type Loader struct {
	fileLoaders map[string]FileLoader
}

// NewLoader creates a loader with the YAML and TOML formats registered
func NewLoader() *Loader {
	l := &Loader{fileLoaders: make(map[string]FileLoader)}
	l.RegisterLoader(YAMLLoader{})
	l.RegisterLoader(TOMLLoader{})
	return l
}

// RegisterLoader registers a file loader for each of its extensions
func (l *Loader) RegisterLoader(loader FileLoader) {
	for _, ext := range loader.Extensions() {
		l.fileLoaders[ext] = loader
	}
}

// Load builds the configuration. An empty path skips the file layer.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := l.loadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string, cfg *Config) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	loader, ok := l.fileLoaders[ext]
	if !ok {
		return fmt.Errorf("unsupported config file format %q", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := loader.Load(file, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// YAMLLoader loads YAML configuration files
type YAMLLoader struct{}

// Load decodes YAML into target. An empty document leaves target unchanged.
func (YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Extensions returns the YAML file extensions
func (YAMLLoader) Extensions() []string { return []string{"yaml", "yml"} }

// TOMLLoader loads TOML configuration files
type TOMLLoader struct{}

// Load decodes TOML into target
func (TOMLLoader) Load(reader io.Reader, target interface{}) error {
	return toml.NewDecoder(reader).Decode(target)
}

// Extensions returns the TOML file extension
func (TOMLLoader) Extensions() []string { return []string{"toml"} }

// isConfigFile checks if a path has a supported config extension
func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}
