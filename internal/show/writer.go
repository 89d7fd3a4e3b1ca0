package show

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteShow writes a show to a YAML file, creating its directory.
func WriteShow(s *Show, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadShow reads and validates a show from a YAML file.
func ReadShow(path string) (*Show, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Show
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// image paths are relative to the show file
	base := filepath.Dir(path)
	for i := range s.Photos {
		if !filepath.IsAbs(s.Photos[i].Image) {
			s.Photos[i].Image = filepath.Join(base, s.Photos[i].Image)
		}
	}
	return &s, nil
}
