package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes a manifest to a YAML file
func WriteYAML(m VideoManifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadYAML reads a manifest from a YAML file
func ReadYAML(path string) (VideoManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VideoManifest{}, err
	}

	var m VideoManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return VideoManifest{}, err
	}

	return m, nil
}

// WriteJSON writes the canonical JSON form used by storage.
func WriteJSON(m VideoManifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadJSON reads a manifest from its canonical JSON form.
func ReadJSON(path string) (VideoManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VideoManifest{}, err
	}

	var m VideoManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return VideoManifest{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return m, nil
}

// Read picks the decoder by file extension.
func Read(path string) (VideoManifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(path)
	default:
		return ReadJSON(path)
	}
}

// Write picks the encoder by file extension.
func Write(m VideoManifest, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return WriteYAML(m, path)
	default:
		return WriteJSON(m, path)
	}
}

// GeneratePath creates a timestamped manifest filename in dir
func GeneratePath(dir string, id string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return filepath.Join(dir, fmt.Sprintf("manifest_%s_%s.json", short, timestamp))
}

// FindLatest finds the most recently modified manifest file in dir
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read manifests directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no manifest files found in %s", dir)
	}

	// newest first
	sort.Slice(files, func(i, j int) bool {
		infoI, _ := os.Stat(files[i])
		infoJ, _ := os.Stat(files[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return files[0], nil
}
