package main

import (
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBindingValueUnmarshal(t *testing.T) {
	var cfg struct {
		Keys map[string]BindingValue `yaml:"keys"`
	}
	doc := `
keys:
  control+meta+Return: spawn-terminal
  control+meta+=:
    Return: toggle-fullscreen
    m: toggle-maximize
`
	if err := yaml.Unmarshal([]byte(doc), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Keys["control+meta+Return"].Action != "spawn-terminal" {
		t.Errorf("scalar binding = %+v", cfg.Keys["control+meta+Return"])
	}
	prefix := cfg.Keys["control+meta+="].Prefix
	if prefix == nil || prefix["Return"].Action != "toggle-fullscreen" {
		t.Errorf("prefix binding = %+v", prefix)
	}

	var bad struct {
		Keys map[string]BindingValue `yaml:"keys"`
	}
	if err := yaml.Unmarshal([]byte("keys:\n  a: [1, 2]\n"), &bad); err == nil {
		t.Error("sequence binding value accepted")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.FocusMode != defaultConfig.FocusMode ||
		cfg.SnapThreshold != defaultConfig.SnapThreshold ||
		cfg.Colors != defaultConfig.Colors {
		t.Errorf("round trip changed config: %+v", cfg)
	}
	if cfg.Keys["meta+Tab"].Action != "cycle-next" {
		t.Errorf("keys lost in round trip: %+v", cfg.Keys)
	}
	if cfg.Keys["control+meta+="].Prefix["Return"].Action != "toggle-fullscreen" {
		t.Errorf("prefix lost in round trip: %+v", cfg.Keys["control+meta+="])
	}
}

func TestConfigStoreWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dim.yaml")
	store, err := NewConfigStore(FileDriver{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := store.Get()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BorderWidth != defaultConfig.BorderWidth {
		t.Errorf("fresh store config = %+v", cfg)
	}
	if exists, _ := (FileDriver{Path: path}).Exists(); !exists {
		t.Error("defaults were not written out")
	}
}
