package changeset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prfang/pkg/changeset"
)

func TestValidateFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   []changeset.ChangedFile
		wantErr error
	}{
		{
			name:    "empty set",
			files:   nil,
			wantErr: changeset.ErrEmptyChangeSet,
		},
		{
			name: "empty path",
			files: []changeset.ChangedFile{
				{Path: "", Kind: changeset.KindModified},
			},
			wantErr: changeset.ErrEmptyPath,
		},
		{
			name: "unknown kind",
			files: []changeset.ChangedFile{
				{Path: "a.go", Kind: "touched"},
			},
			wantErr: changeset.ErrUnknownKind,
		},
		{
			name: "duplicate path",
			files: []changeset.ChangedFile{
				{Path: "a.go", Kind: changeset.KindModified},
				{Path: "a.go", Kind: changeset.KindDeleted},
			},
			wantErr: changeset.ErrDuplicatePath,
		},
		{
			name: "valid",
			files: []changeset.ChangedFile{
				{Path: "a.go", Kind: changeset.KindModified},
				{Path: "b.go", Kind: changeset.KindAdded},
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := changeset.ValidateFiles(tt.files)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPathsSorted(t *testing.T) {
	t.Parallel()

	files := []changeset.ChangedFile{
		{Path: "z.go", Kind: changeset.KindModified},
		{Path: "a.go", Kind: changeset.KindModified},
		{Path: "m.go", Kind: changeset.KindModified},
	}

	assert.Equal(t, []string{"a.go", "m.go", "z.go"}, changeset.Paths(files))
}

func TestChangeSize(t *testing.T) {
	t.Parallel()

	f := changeset.ChangedFile{Path: "a.go", Added: 12, Removed: 5}
	assert.Equal(t, 17, f.ChangeSize())
}

func TestIsTest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"pkg/server_test.go", true},
		{"tests/test_auth.py", true},
		{"src/auth.test.ts", true},
		{"spec/user_spec.rb", true},
		{"pkg/server.go", false},
		{"docs/testing.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			f := changeset.ChangedFile{Path: tt.path}
			assert.Equal(t, tt.want, f.IsTest())
		})
	}
}

func TestTestSubjects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want []string
	}{
		{
			name: "python prefix",
			path: "pkg/test_auth.py",
			want: []string{"pkg/auth.py"},
		},
		{
			name: "go suffix",
			path: "pkg/server_test.go",
			want: []string{"pkg/server.go"},
		},
		{
			name: "js infix",
			path: "src/auth.test.ts",
			want: []string{"src/auth.ts"},
		},
		{
			name: "ruby spec",
			path: "spec/user_spec.rb",
			want: []string{"spec/user.rb"},
		},
		{
			name: "root directory",
			path: "test_main.py",
			want: []string{"main.py"},
		},
		{
			name: "not a test",
			path: "pkg/server.go",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ElementsMatch(t, tt.want, changeset.TestSubjects(tt.path))
		})
	}
}
