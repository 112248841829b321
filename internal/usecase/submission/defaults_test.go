package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `score: 70
confidence: 40
labels:
  - external-intel
markingIds:
  - marking-2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := LoadDefaults(path)
	require.NoError(t, err)

	require.NotNil(t, d.Score)
	assert.Equal(t, 70, *d.Score)
	require.NotNil(t, d.Confidence)
	assert.Equal(t, 40, *d.Confidence)
	assert.Equal(t, []string{"external-intel"}, d.Labels)
	assert.Equal(t, []string{"marking-2"}, d.MarkingIDs)
}

func TestLoadDefaultsEmptyPath(t *testing.T) {
	d, err := LoadDefaults("")
	require.NoError(t, err)
	assert.Nil(t, d.Score)
	assert.Nil(t, d.Confidence)
	assert.Empty(t, d.Labels)
}

func TestLoadDefaultsMissingFile(t *testing.T) {
	_, err := LoadDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("score: [oops"), 0o600))

	_, err := LoadDefaults(path)
	assert.Error(t, err)
}
