package show

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// DefaultDir is where generated shows are written.
var DefaultDir = filepath.Join("internal", "shows")

// GenerateShowPath creates a timestamped show filename in dir
func GenerateShowPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("show_%s.yaml", timestamp))
}

var photoExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// ListPhotos returns the photos in dir sorted by name
func ListPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var photos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(photoExts, ext) {
			photos = append(photos, filepath.Join(dir, entry.Name()))
		}
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("в папке %s нет фотографий", dir)
	}
	sort.Strings(photos)
	return photos, nil
}
