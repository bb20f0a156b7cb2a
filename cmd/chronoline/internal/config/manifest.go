package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

// Manifest lists the document pairs of one evaluation.
type Manifest struct {
	Pairs []Pair `yaml:"pairs" json:"pairs"`
}

// Pair names the files of one reference/hypothesis comparison. UEM is
// optional; when set, scoring is restricted to its regions.
type Pair struct {
	Reference  string `yaml:"reference" json:"reference"`
	Hypothesis string `yaml:"hypothesis" json:"hypothesis"`
	UEM        string `yaml:"uem,omitempty" json:"uem,omitempty"`
}

// LoadManifest reads a YAML or JSON manifest, chosen by file extension
// (.json decodes as JSON, everything else as YAML). Relative file
// paths inside the manifest resolve against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yamlv3.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Pairs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no pairs", path)
	}

	base := filepath.Dir(path)
	for i := range m.Pairs {
		p := &m.Pairs[i]
		if p.Reference == "" || p.Hypothesis == "" {
			return nil, fmt.Errorf("manifest %s: pair %d needs reference and hypothesis", path, i)
		}
		p.Reference = resolve(base, p.Reference)
		p.Hypothesis = resolve(base, p.Hypothesis)
		if p.UEM != "" {
			p.UEM = resolve(base, p.UEM)
		}
	}
	return &m, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
