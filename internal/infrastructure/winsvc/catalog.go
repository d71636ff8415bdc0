package winsvc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

type catalogFile struct {
	Services []domain.ServiceConfig `yaml:"services"`
}

// LoadCatalog reads the static service catalog. JSON files parse too, since
// JSON is a subset of YAML.
func LoadCatalog(path string) ([]domain.ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse service catalog: %w", err)
	}

	seen := make(map[string]bool, len(cf.Services))
	for i, s := range cf.Services {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("service catalog entry %d: missing name", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("service catalog: duplicate service %q", name)
		}
		seen[key] = true
		cf.Services[i].Name = name
		if cf.Services[i].DisplayName == "" {
			cf.Services[i].DisplayName = name
		}
	}
	if len(cf.Services) == 0 {
		return nil, errors.New("service catalog: no services defined")
	}
	return cf.Services, nil
}
