// Package datacfg reads, writes, and generates the trainer's dataset
// configuration files.
package datacfg

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the dataset description the trainer consumes.
type Config struct {
	Path  string   `yaml:"path"`
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	Test  string   `yaml:"test,omitempty"`
	NC    int      `yaml:"nc,omitempty"`
	Names []string `yaml:"names,omitempty"`
}

// Parse loads a dataset YAML file.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse dataset config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode dataset config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset config: %w", err)
	}
	return nil
}

// ResolveDataDir returns the directory a classification run should train on
// when the user points at a YAML file instead of a folder: the config's own
// path if set, else the directory holding the YAML.
func ResolveDataDir(yamlPath string) (string, error) {
	cfg, err := Parse(yamlPath)
	if err != nil {
		return "", err
	}
	if cfg.Path == "" {
		return filepath.Dir(yamlPath), nil
	}
	if filepath.IsAbs(cfg.Path) {
		return cfg.Path, nil
	}
	return filepath.Join(filepath.Dir(yamlPath), cfg.Path), nil
}

// Generate builds a config for a classification dataset folder.
//
// Two layouts are accepted: a pre-split tree (train/ and val/ present, each
// holding class folders) and a flat tree of class folders, which is split
// in place into train/ and val/ using valRatio.
func Generate(root string, valRatio float64) (*Config, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a dataset directory: %s", root)
	}

	trainDir := filepath.Join(root, "train")
	valDir := filepath.Join(root, "val")

	if isDir(trainDir) && isDir(valDir) {
		classes, err := classDirs(trainDir)
		if err != nil {
			return nil, err
		}
		cfg := &Config{
			Path:  root,
			Train: "train",
			Val:   "val",
			NC:    len(classes),
			Names: classes,
		}
		if isDir(filepath.Join(root, "test")) {
			cfg.Test = "test"
		}
		return cfg, nil
	}

	classes, err := classDirs(root)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("no class folders in %s: need train/val subdirectories or one folder per class", root)
	}
	if err := splitClasses(root, classes, valRatio); err != nil {
		return nil, err
	}
	return &Config{
		Path:  root,
		Train: "train",
		Val:   "val",
		NC:    len(classes),
		Names: classes,
	}, nil
}

// splitClasses moves each class folder's files into train/<class> and
// val/<class>, sending roughly valRatio of them to the validation side.
func splitClasses(root string, classes []string, valRatio float64) error {
	if valRatio <= 0 || valRatio >= 1 {
		valRatio = 0.2
	}
	for _, class := range classes {
		src := filepath.Join(root, class)
		entries, err := os.ReadDir(src)
		if err != nil {
			return fmt.Errorf("read class folder %s: %w", class, err)
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				files = append(files, e.Name())
			}
		}
		sort.Strings(files)

		valCount := int(float64(len(files)) * valRatio)
		if valCount == 0 && len(files) > 1 {
			valCount = 1
		}

		for i, name := range files {
			side := "train"
			// Every Nth-style selection would bias by name ordering; taking
			// the tail keeps the move idempotent on partial reruns.
			if i >= len(files)-valCount {
				side = "val"
			}
			dst := filepath.Join(root, side, class)
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			if err := os.Rename(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
				return fmt.Errorf("move %s: %w", name, err)
			}
		}
		if err := os.Remove(src); err != nil {
			// Leftover non-file entries keep the dir; not fatal.
			continue
		}
	}
	return nil
}

// classDirs lists class subfolders, skipping hidden entries and the split
// output folders themselves.
func classDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset folder: %w", err)
	}
	var classes []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if name == "train" || name == "val" || name == "test" {
			continue
		}
		classes = append(classes, name)
	}
	sort.Strings(classes)
	return classes, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
