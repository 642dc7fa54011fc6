package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"trendhub/internal/models"
)

type sitesFile struct {
	Sites []models.EcommerceSite `yaml:"sites"`
}

// LoadSites reads the e-commerce site seed list. Names are lowercased and
// must be unique within the file.
func LoadSites(path string) ([]models.EcommerceSite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	return ParseSites(raw)
}

func ParseSites(raw []byte) ([]models.EcommerceSite, error) {
	var file sitesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Sites))
	for i := range file.Sites {
		site := &file.Sites[i]
		site.Name = strings.ToLower(strings.TrimSpace(site.Name))
		if site.Name == "" {
			return nil, fmt.Errorf("site #%d: name required", i+1)
		}
		if site.BaseURL == "" {
			return nil, fmt.Errorf("site %s: baseUrl required", site.Name)
		}
		if _, dup := seen[site.Name]; dup {
			return nil, fmt.Errorf("site %s listed twice", site.Name)
		}
		seen[site.Name] = struct{}{}
		if site.DisplayName == "" {
			site.DisplayName = site.Name
		}
		site.ApplyDefaults()
	}
	return file.Sites, nil
}
