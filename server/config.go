package server

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config configures the demo server.
type Config struct {
	// Port to listen on.
	Port int `yaml:"port"`
	// CaptureDir is the directory of captured responses to serve.
	// Empty means starting with an empty cache.
	CaptureDir string `yaml:"captureDir"`
	// DynamicResponses makes numeric paths serve generated bodies of
	// that many bytes.
	DynamicResponses bool `yaml:"dynamicResponses"`
	// WebTransport accepts session-transport requests for cached
	// paths.
	WebTransport bool `yaml:"webTransport"`
}

// LoadConfig reads a yaml config file.
func LoadConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return config, err
	}
	if config.Port == 0 {
		config.Port = 8080
	}
	return config, nil
}
