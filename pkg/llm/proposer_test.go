package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/prfang/pkg/llm"
)

func twoFileBatch() llm.Batch {
	return llm.Batch{Files: []llm.BatchFile{
		{Path: "a.py", Kind: "modified", Language: "python", Added: 10, Removed: 2},
		{Path: "b.py", Kind: "added", Language: "python", Added: 40},
	}}
}

func TestBatchKeyStable(t *testing.T) {
	t.Parallel()

	batch := twoFileBatch()

	shuffled := llm.Batch{Files: []llm.BatchFile{batch.Files[1], batch.Files[0]}}

	assert.Equal(t, batch.Key(), shuffled.Key())
}

func TestBatchKeySensitiveToContent(t *testing.T) {
	t.Parallel()

	batch := twoFileBatch()

	changed := twoFileBatch()
	changed.Files[0].Added = 11

	assert.NotEqual(t, batch.Key(), changed.Key())
}

func TestParseProposal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name: "plain json",
			raw:  `{"groups":[{"files":["a.py","b.py"],"rationale":"auth change","confidence":0.9}]}`,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"groups\":[{\"files\":[\"a.py\"],\"rationale\":\"r\",\"confidence\":0.5}]}\n```",
		},
		{
			name:    "not json",
			raw:     "I think these files belong together.",
			wantErr: llm.ErrMalformedResponse,
		},
		{
			name:    "file outside batch",
			raw:     `{"groups":[{"files":["ghost.py"],"rationale":"r","confidence":0.5}]}`,
			wantErr: llm.ErrMalformedResponse,
		},
		{
			name:    "confidence out of range",
			raw:     `{"groups":[{"files":["a.py"],"rationale":"r","confidence":1.5}]}`,
			wantErr: llm.ErrMalformedResponse,
		},
		{
			name:    "empty group",
			raw:     `{"groups":[{"files":[],"rationale":"r","confidence":0.5}]}`,
			wantErr: llm.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := llm.ParseProposal(tt.raw, twoFileBatch())
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseProposalPartialCoverageAllowed(t *testing.T) {
	t.Parallel()

	// The service may leave files unclaimed; callers treat them as uncovered.
	raw := `{"groups":[{"files":["a.py"],"rationale":"r","confidence":0.8}]}`

	proposal, err := llm.ParseProposal(raw, twoFileBatch())
	assert.NoError(t, err)
	assert.Len(t, proposal.Groups, 1)
}
