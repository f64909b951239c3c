package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const defaultServer = "http://localhost:3000"

// ctlConfig sparkctl 配置文件
type ctlConfig struct {
	Server        string `yaml:"server"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// defaultConfigPath $XDG_CONFIG_HOME/sparkreach/sparkctl.yaml
func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "sparkreach", "sparkctl.yaml")
}

// loadConfig 读取配置文件，文件不存在时返回默认配置
func loadConfig(path string) (*ctlConfig, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	cfg := &ctlConfig{Server: defaultServer}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	return cfg, nil
}
