package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BindingValue is either a terminal action name or a nested prefix
// map, mirroring the binding map structure.
type BindingValue struct {
	Action string
	Prefix map[string]BindingValue
}

func (b *BindingValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&b.Action)
	case yaml.MappingNode:
		return node.Decode(&b.Prefix)
	}
	return fmt.Errorf("binding value must be a string or a map (line %d)", node.Line)
}

func (b BindingValue) MarshalYAML() (interface{}, error) {
	if b.Prefix != nil {
		return b.Prefix, nil
	}
	return b.Action, nil
}

// Colors are "#rrggbb" strings in the file, decoded to pixel values.
type Colors struct {
	FocusedFg    string `yaml:"focused_fg"`
	FocusedBg    string `yaml:"focused_bg"`
	UnfocusedFg  string `yaml:"unfocused_fg"`
	UnfocusedBg  string `yaml:"unfocused_bg"`
	MinibufferFg string `yaml:"minibuffer_fg"`
	MinibufferBg string `yaml:"minibuffer_bg"`
}

// Config is the manager's data-driven customization surface.
type Config struct {
	FocusMode     string `yaml:"focus_mode"` // sloppy or click
	FocusNew      bool   `yaml:"focus_new"`
	TitleFont     string `yaml:"title_font"`
	BorderWidth   int    `yaml:"border_width"`
	SnapThreshold int    `yaml:"snap_threshold"`
	Terminal      string `yaml:"terminal"`
	ListenAddr    string `yaml:"listen_addr"`

	Colors Colors `yaml:"colors"`

	Keys     map[string]BindingValue `yaml:"keys"`
	Buttons  map[string]string       `yaml:"buttons"`
	Titlebar map[string]string       `yaml:"titlebar"`
}

var defaultConfig = Config{
	FocusMode:     "sloppy",
	FocusNew:      true,
	TitleFont:     "fixed",
	BorderWidth:   2,
	SnapThreshold: 5,
	Terminal:      "xterm",
	ListenAddr:    "127.0.0.1:8039",
	Colors: Colors{
		FocusedFg:    "#ffffff",
		FocusedBg:    "#000000",
		UnfocusedFg:  "#000000",
		UnfocusedBg:  "#bfbfbf",
		MinibufferFg: "#000000",
		MinibufferBg: "#ffffff",
	},
	Keys: map[string]BindingValue{
		"control+meta+Return": {Action: "spawn-terminal"},
		"control+meta+Tab":    {Action: "tagset-prompt"},
		"control+meta+space":  {Action: "shell-prompt"},
		"control+meta+Escape": {Action: "delete-window"},
		"meta+Tab":            {Action: "cycle-next"},
		"shift+meta+Tab":      {Action: "cycle-prev"},
		"control+meta+=": {Prefix: map[string]BindingValue{
			"Return": {Action: "toggle-fullscreen"},
			"m":      {Action: "toggle-maximize"},
			"h":      {Action: "toggle-maximize-horz"},
			"v":      {Action: "toggle-maximize-vert"},
		}},
	},
	Buttons: map[string]string{
		"meta+button1":       "move-window",
		"meta+button3":       "resize-window",
		"shift+meta+button1": "raise-window",
		"shift+meta+button3": "lower-window",
	},
	Titlebar: map[string]string{
		"button1": "raise-and-move",
		"button2": "edit-tags",
	},
}

// ParseColor decodes a "#rrggbb" (or "0xrrggbb") color to a pixel
// value, assuming a 24-bit TrueColor visual.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad color %q: %w", s, err)
	}
	return uint32(v), nil
}

// Driver persists a Config somewhere.
type Driver interface {
	Exists() (bool, error)
	Read() (Config, error)
	Write(Config) error
}

// FileDriver stores the config as a YAML file.
type FileDriver struct {
	Path string
}

func (d FileDriver) Exists() (bool, error) {
	if _, err := os.Stat(d.Path); err == nil {
		return true, nil
	} else if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else {
		return false, err
	}
}

func (d FileDriver) Read() (Config, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return Config{}, err
	}
	cfg := defaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", d.Path, err)
	}
	return cfg, nil
}

func (d FileDriver) Write(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(d.Path, data, 0o644)
}

// NewConfigStore opens a config store, writing the defaults out when
// no file exists yet.
func NewConfigStore(driver Driver) (*ConfigStore, error) {
	exists, err := driver.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := driver.Write(defaultConfig); err != nil {
			return nil, err
		}
	}
	return &ConfigStore{driver: driver}, nil
}

type ConfigStore struct {
	driver Driver
}

func (s *ConfigStore) Get() (Config, error) {
	return s.driver.Read()
}
