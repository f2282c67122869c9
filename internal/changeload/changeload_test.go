package changeload_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/internal/changeload"
	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

func TestReadJSONEnvelope(t *testing.T) {
	t.Parallel()

	input := `{"files": [
		{"path": "a.py", "kind": "modified", "added": 3, "removed": 1},
		{"path": "b.py", "kind": "added", "imports": ["helper"]}
	]}`

	files, err := changeload.ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "a.py", files[0].Path)
	assert.Equal(t, changeset.KindModified, files[0].Kind)
	assert.Equal(t, 3, files[0].Added)
	assert.Equal(t, []string{"helper"}, files[1].Imports)
}

func TestReadJSONBareArray(t *testing.T) {
	t.Parallel()

	input := `[{"path": "a.py", "kind": "deleted"}]`

	files, err := changeload.ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, changeset.KindDeleted, files[0].Kind)
}

func TestReadJSONRejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "empty set",
			input:   `{"files": []}`,
			wantErr: changeset.ErrEmptyChangeSet,
		},
		{
			name:    "unknown kind",
			input:   `[{"path": "a.py", "kind": "touched"}]`,
			wantErr: changeset.ErrUnknownKind,
		},
		{
			name:    "duplicate path",
			input:   `[{"path": "a.py", "kind": "added"}, {"path": "a.py", "kind": "modified"}]`,
			wantErr: changeset.ErrDuplicatePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := changeload.ReadJSON(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadYAML(t *testing.T) {
	t.Parallel()

	input := `
files:
  - path: svc/auth.py
    kind: modified
    language: python
    exports: [login]
  - path: svc/api.py
    kind: modified
    imports: [login]
`

	files, err := changeload.ReadYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "svc/auth.py", files[0].Path)
	assert.Equal(t, "python", files[0].Language)
	assert.Equal(t, []string{"login"}, files[0].Exports)
	assert.Equal(t, []string{"login"}, files[1].Imports)
}

const sampleDiff = `diff --git a/svc/auth.py b/svc/auth.py
--- a/svc/auth.py
+++ b/svc/auth.py
@@ -1,4 +1,5 @@
 import os
-def login():
+def login(user):
+    check(user)
     return True
diff --git a/svc/new.py b/svc/new.py
--- /dev/null
+++ b/svc/new.py
@@ -0,0 +1,2 @@
+def fresh():
+    return 1
diff --git a/svc/old.py b/svc/old.py
--- a/svc/old.py
+++ /dev/null
@@ -1,2 +0,0 @@
-def stale():
-    return 0
`

func TestReadDiff(t *testing.T) {
	t.Parallel()

	files, err := changeload.ReadDiff(strings.NewReader(sampleDiff))
	require.NoError(t, err)
	require.Len(t, files, 3)

	modified := files[0]
	assert.Equal(t, "svc/auth.py", modified.Path)
	assert.Equal(t, changeset.KindModified, modified.Kind)
	assert.Equal(t, "python", modified.Language)
	assert.Positive(t, modified.Added)
	assert.Positive(t, modified.Removed)

	added := files[1]
	assert.Equal(t, "svc/new.py", added.Path)
	assert.Equal(t, changeset.KindAdded, added.Kind)
	assert.Equal(t, 2, added.Added)
	assert.Zero(t, added.Removed)

	deleted := files[2]
	assert.Equal(t, "svc/old.py", deleted.Path)
	assert.Equal(t, changeset.KindDeleted, deleted.Kind)
	assert.Equal(t, 2, deleted.Removed)
}

func TestLoadManifestDispatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "changes.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"path": "a.py", "kind": "modified"}]`), 0o600))

	files, err := changeload.LoadManifest(jsonPath)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	diffPath := filepath.Join(dir, "changes.diff")
	require.NoError(t, os.WriteFile(diffPath, []byte(sampleDiff), 0o600))

	files, err = changeload.LoadManifest(diffPath)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	unknownPath := filepath.Join(dir, "changes.txt")
	require.NoError(t, os.WriteFile(unknownPath, []byte("whatever"), 0o600))

	_, err = changeload.LoadManifest(unknownPath)
	assert.ErrorIs(t, err, changeload.ErrUnknownFormat)

	_, err = changeload.LoadManifest(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)
}
