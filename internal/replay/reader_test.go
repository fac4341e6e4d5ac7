package replay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReadFrames parses a small log with comments and blank lines.
func TestReadFrames(t *testing.T) {
	log := `# recorded 2026-08-14
{"timestamp_sec": 0.0, "landmarks": [{"id": 24, "x": 0, "y": 1, "z": 0, "visibility": 0.9}]}

{"timestamp_sec": 0.5, "landmarks": [{"id": 26, "x": 0, "y": 0, "z": 0, "visibility": 0.8}]}
`
	frames, err := ReadFrames(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 0.0, frames[0].TimestampSec)
	assert.Equal(t, 0.5, frames[1].TimestampSec)
	require.Len(t, frames[1].Landmarks, 1)
	assert.Equal(t, 0.8, frames[1].Landmarks[0].Visibility)
}

// TestReadFramesBadLine verifies a malformed line errors with its number.
func TestReadFramesBadLine(t *testing.T) {
	log := `{"timestamp_sec": 0.0, "landmarks": []}
not json
`
	_, err := ReadFrames(strings.NewReader(log))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

// TestReadFramesEmpty verifies an all-comment log yields no frames and
// no error.
func TestReadFramesEmpty(t *testing.T) {
	frames, err := ReadFrames(strings.NewReader("# nothing here\n\n"))
	require.NoError(t, err)
	assert.Empty(t, frames)
}
