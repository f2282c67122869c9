package changeset

import (
	"path"
	"strings"
)

// test naming conventions recognized across languages.
const (
	testPrefix     = "test_"
	goTestSuffix   = "_test"
	jsTestInfix    = ".test"
	specTestSuffix = "_spec"
)

// looksLikeTest reports whether a path follows a test naming convention.
func looksLikeTest(filePath string) bool {
	base := path.Base(filePath)
	stem := strings.TrimSuffix(base, path.Ext(base))

	return strings.HasPrefix(base, testPrefix) ||
		strings.HasSuffix(stem, goTestSuffix) ||
		strings.HasSuffix(stem, jsTestInfix) ||
		strings.HasSuffix(stem, specTestSuffix)
}

// TestSubjects returns the candidate subject paths a test file may cover,
// derived by stripping the naming convention from the test path. The result
// keeps the test file's directory and extension; callers match candidates
// against files actually present in the change set.
func TestSubjects(testPath string) []string {
	dir := path.Dir(testPath)
	base := path.Base(testPath)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var stems []string

	switch {
	case strings.HasPrefix(stem, testPrefix):
		stems = append(stems, strings.TrimPrefix(stem, testPrefix))
	case strings.HasSuffix(stem, goTestSuffix):
		stems = append(stems, strings.TrimSuffix(stem, goTestSuffix))
	case strings.HasSuffix(stem, jsTestInfix):
		stems = append(stems, strings.TrimSuffix(stem, jsTestInfix))
	case strings.HasSuffix(stem, specTestSuffix):
		stems = append(stems, strings.TrimSuffix(stem, specTestSuffix))
	}

	subjects := make([]string, 0, len(stems))

	for _, s := range stems {
		if s == "" {
			continue
		}

		if dir == "." {
			subjects = append(subjects, s+ext)
			continue
		}

		subjects = append(subjects, path.Join(dir, s+ext))
	}

	return subjects
}
