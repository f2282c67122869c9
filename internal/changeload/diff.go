package changeload

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

// devNull is the git placeholder path for a missing side of a diff.
const devNull = "/dev/null"

// ReadDiff parses a unified diff into changed-file records. Line deltas come
// from the hunk stats; language detection falls back to the file extension
// since diffs carry no full file content. Symbol and dependency fields are
// left empty, so graphs built from plain diffs carry proximity and test-of
// edges only.
func ReadDiff(r io.Reader) ([]changeset.ChangedFile, error) {
	reader := diff.NewMultiFileDiffReader(r)

	var files []changeset.ChangedFile

	for {
		fileDiff, err := reader.ReadFile()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("parse unified diff: %w", err)
		}

		files = append(files, fromFileDiff(fileDiff))
	}

	validateErr := changeset.ValidateFiles(files)
	if validateErr != nil {
		return nil, fmt.Errorf("validate diff: %w", validateErr)
	}

	return files, nil
}

func fromFileDiff(fd *diff.FileDiff) changeset.ChangedFile {
	origName := stripDiffPrefix(fd.OrigName)
	newName := stripDiffPrefix(fd.NewName)

	path := newName
	if newName == devNull {
		path = origName
	}

	stat := fd.Stat()

	return changeset.ChangedFile{
		Path:     path,
		Kind:     kindOf(origName, newName),
		Added:    int(stat.Added + stat.Changed),
		Removed:  int(stat.Deleted + stat.Changed),
		Language: detectLanguage(path),
	}
}

func kindOf(origName, newName string) changeset.ChangeKind {
	switch {
	case origName == devNull:
		return changeset.KindAdded
	case newName == devNull:
		return changeset.KindDeleted
	case origName != newName:
		return changeset.KindRenamed
	default:
		return changeset.KindModified
	}
}

// stripDiffPrefix removes the conventional a/ and b/ prefixes git puts on
// diff header paths.
func stripDiffPrefix(name string) string {
	if name == devNull {
		return name
	}

	if rest, ok := strings.CutPrefix(name, "a/"); ok {
		return rest
	}

	if rest, ok := strings.CutPrefix(name, "b/"); ok {
		return rest
	}

	return name
}

func detectLanguage(path string) string {
	lang := enry.GetLanguage(filepath.Base(path), nil)

	return strings.ToLower(lang)
}
