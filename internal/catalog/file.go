package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/langchou/sparkreach/internal/models"
)

// File YAML 目录文件结构
type File struct {
	Chargers []*models.Charger `yaml:"chargers"`
}

// LoadFile 从 YAML 文件读取目录
func LoadFile(path string) ([]*models.Charger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse 解析并校验 YAML 目录
func Parse(data []byte) ([]*models.Charger, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}

	seen := make(map[string]bool, len(f.Chargers))
	for i, c := range f.Chargers {
		if err := Validate(c); err != nil {
			return nil, fmt.Errorf("charger #%d: %w", i+1, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("charger #%d: duplicate id %q", i+1, c.ID)
		}
		seen[c.ID] = true
		if len(c.Slots) == 0 {
			c.Slots = models.DefaultSlots()
		}
	}
	return f.Chargers, nil
}

// Validate 检查目录条目的必填字段
func Validate(c *models.Charger) error {
	switch {
	case c == nil:
		return fmt.Errorf("empty entry")
	case strings.TrimSpace(c.ID) == "":
		return fmt.Errorf("id is required")
	case strings.TrimSpace(c.Location) == "":
		return fmt.Errorf("location is required")
	case strings.TrimSpace(c.Area) == "":
		return fmt.Errorf("area is required")
	case !models.IsListingType(c.Type):
		return fmt.Errorf("unsupported type %q", c.Type)
	case c.Price <= 0:
		return fmt.Errorf("price must be positive")
	}
	return nil
}
