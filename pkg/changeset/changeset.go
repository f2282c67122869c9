// Package changeset defines the changed-file records that form the input of
// every grouping run, plus validation of the raw record sequence.
package changeset

import (
	"errors"
	"fmt"
	"sort"
)

// ChangeKind identifies how a file was touched in the change set.
type ChangeKind string

const (
	// KindAdded marks a newly created file.
	KindAdded ChangeKind = "added"
	// KindModified marks an edited file.
	KindModified ChangeKind = "modified"
	// KindDeleted marks a removed file.
	KindDeleted ChangeKind = "deleted"
	// KindRenamed marks a moved file.
	KindRenamed ChangeKind = "renamed"
)

// Sentinel errors for input validation.
var (
	// ErrEmptyChangeSet indicates the input contains no changed files.
	ErrEmptyChangeSet = errors.New("change set must contain at least one file")
	// ErrDuplicatePath indicates two records share the same path.
	ErrDuplicatePath = errors.New("duplicate changed-file path")
	// ErrEmptyPath indicates a record with an empty path.
	ErrEmptyPath = errors.New("changed-file path must not be empty")
	// ErrUnknownKind indicates an unrecognized change kind.
	ErrUnknownKind = errors.New("unknown change kind")
)

// ChangedFile describes a single file touched in the change set under
// analysis. A record is immutable once constructed for a given run; slices
// are owned by the record and must not be mutated by consumers.
type ChangedFile struct {
	// Path is the repository-relative file path and the unique record key.
	Path string `json:"path" yaml:"path"`

	// Kind is how the file was changed.
	Kind ChangeKind `json:"kind" yaml:"kind"`

	// Added and Removed are the line deltas reported by the scanner.
	Added   int `json:"added"   yaml:"added"`
	Removed int `json:"removed" yaml:"removed"`

	// Language is the detected programming language, empty when unknown.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Exports and Imports are the symbol sets the scanner resolved for the
	// file. Imports may reference symbols no changed file exports; such
	// references are external and carry no edge.
	Exports []string `json:"exports,omitempty" yaml:"exports,omitempty"`
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty"`

	// DependsOn lists paths this file statically depends on.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`

	// HasTest reports whether the scanner associated a test with this file.
	HasTest bool `json:"has_test,omitempty" yaml:"has_test,omitempty"`
}

// IsTest reports whether the file itself looks like a test by naming
// convention.
func (f ChangedFile) IsTest() bool {
	return looksLikeTest(f.Path)
}

// ChangeSize returns the total number of changed lines.
func (f ChangedFile) ChangeSize() int {
	return f.Added + f.Removed
}

// ValidKind reports whether k is one of the recognized change kinds.
func ValidKind(k ChangeKind) bool {
	switch k {
	case KindAdded, KindModified, KindDeleted, KindRenamed:
		return true
	default:
		return false
	}
}

// ValidateFiles checks a raw record sequence before graph construction.
// It rejects empty input, empty or duplicate paths, and unknown kinds.
func ValidateFiles(files []ChangedFile) error {
	if len(files) == 0 {
		return ErrEmptyChangeSet
	}

	seen := make(map[string]struct{}, len(files))

	for _, f := range files {
		if f.Path == "" {
			return ErrEmptyPath
		}

		if !ValidKind(f.Kind) {
			return fmt.Errorf("%w: %q for %s", ErrUnknownKind, f.Kind, f.Path)
		}

		if _, dup := seen[f.Path]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, f.Path)
		}

		seen[f.Path] = struct{}{}
	}

	return nil
}

// Paths returns the sorted list of file paths in the change set.
func Paths(files []ChangedFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	sort.Strings(paths)

	return paths
}
