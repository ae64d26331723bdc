package siteprofile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads the site profile YAML file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the profile. ${VAR} references are expanded from the
// environment first. An empty path yields Default(); fields missing from the
// file keep their default values.
func (l *Loader) Load() (Profile, error) {
	profile := Default()
	if l.filePath == "" {
		return profile, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read site profile: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to parse site profile yaml: %w", err)
	}

	profile.Author.Name = strings.TrimSpace(profile.Author.Name)
	if profile.Author.Name == "" {
		return Profile{}, fmt.Errorf("site profile %s: author.name must not be empty", l.filePath)
	}
	return profile, nil
}
