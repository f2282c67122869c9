// Package changeload reads changed-file records from the formats callers
// actually have on hand: JSON or YAML manifests, and raw unified diffs.
package changeload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

// Manifest is the on-disk change manifest format. The top-level "files" key
// leaves room for future metadata without breaking existing manifests.
type Manifest struct {
	Files []changeset.ChangedFile `json:"files" yaml:"files"`
}

// ErrUnknownFormat indicates the manifest extension is not recognized.
var ErrUnknownFormat = errors.New("unknown manifest format")

// LoadManifest reads a change manifest from path, dispatching on extension:
// .json parses as JSON, .yaml/.yml as YAML, and .diff/.patch as a unified
// diff. Records are validated before being returned.
func LoadManifest(path string) ([]changeset.ChangedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".yaml", ".yml":
		return ReadYAML(f)
	case ".diff", ".patch":
		return ReadDiff(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ReadJSON parses a JSON manifest. Both the {"files": [...]} envelope and a
// bare top-level array are accepted.
func ReadJSON(r io.Reader) ([]changeset.ChangedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest

	envErr := json.Unmarshal(data, &manifest)
	if envErr != nil || manifest.Files == nil {
		var bare []changeset.ChangedFile

		bareErr := json.Unmarshal(data, &bare)
		if bareErr != nil {
			if envErr != nil {
				return nil, fmt.Errorf("parse json manifest: %w", envErr)
			}

			return nil, fmt.Errorf("parse json manifest: %w", bareErr)
		}

		manifest.Files = bare
	}

	validateErr := changeset.ValidateFiles(manifest.Files)
	if validateErr != nil {
		return nil, fmt.Errorf("validate manifest: %w", validateErr)
	}

	return manifest.Files, nil
}

// ReadYAML parses a YAML manifest with the {"files": [...]} envelope.
func ReadYAML(r io.Reader) ([]changeset.ChangedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest

	unmarshalErr := yaml.Unmarshal(data, &manifest)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("parse yaml manifest: %w", unmarshalErr)
	}

	validateErr := changeset.ValidateFiles(manifest.Files)
	if validateErr != nil {
		return nil, fmt.Errorf("validate manifest: %w", validateErr)
	}

	return manifest.Files, nil
}
