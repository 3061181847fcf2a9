package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr             string `json:"addr" yaml:"addr" toml:"addr"`
	FramesDir        string `json:"frames_dir" yaml:"frames_dir" toml:"frames_dir"`
	FrameWidth       int    `json:"frame_width" yaml:"frame_width" toml:"frame_width"`
	FrameHeight      int    `json:"frame_height" yaml:"frame_height" toml:"frame_height"`
	FrameIntervalSec int    `json:"frame_interval_sec" yaml:"frame_interval_sec" toml:"frame_interval_sec"`

	AdviceEndpoint string `json:"advice_endpoint" yaml:"advice_endpoint" toml:"advice_endpoint"`
	AdviceAPIKey   string `json:"advice_api_key" yaml:"advice_api_key" toml:"advice_api_key"`
	AdviceModel    string `json:"advice_model" yaml:"advice_model" toml:"advice_model"`

	BridgeServer  string `json:"bridge_server" yaml:"bridge_server" toml:"bridge_server"`
	BridgeToken   string `json:"bridge_token" yaml:"bridge_token" toml:"bridge_token"`
	BridgeSyncSec int    `json:"bridge_sync_sec" yaml:"bridge_sync_sec" toml:"bridge_sync_sec"`

	HistoryDB string `json:"history_db" yaml:"history_db" toml:"history_db"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
