package reference

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCorpusCoversThreeSubjects(t *testing.T) {
	c := Default()

	assert.ElementsMatch(t, []string{"english", "mathematics", "science"}, c.SubjectNames())
	assert.True(t, c.HasSubject("Mathematics"), "subject lookup should be case-insensitive")
	assert.False(t, c.HasSubject("history"))
}

func TestFlattenCombinesTopics(t *testing.T) {
	c := Default()

	refs := c.Flatten("mathematics")
	require.Len(t, refs, 6, "algebra (3) + geometry (3)")

	// Topics are walked in sorted order: algebra before geometry
	assert.Contains(t, refs[0], "linear equations")
	assert.Contains(t, refs[3], "Pythagorean")

	assert.Nil(t, c.Flatten("history"))
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "reference.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.SubjectNames(), 3)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")

	orig := &Corpus{
		Subjects: map[string]map[string][]string{
			"history": {
				"rome": {"Rome was founded in 753 BC"},
			},
		},
	}
	require.NoError(t, orig.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.True(t, loaded.HasSubject("history"))
	assert.Equal(t, []string{"Rome was founded in 753 BC"}, loaded.Flatten("history"))
	assert.False(t, loaded.HasSubject("mathematics"), "file corpus replaces defaults entirely")
}

func TestLoadRejectsEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, (&Corpus{}).Save(path))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAllAnswersStableOrder(t *testing.T) {
	c := Default()
	all := c.AllAnswers()
	require.Len(t, all, 18)

	// english sorts first, mathematics second, science third
	assert.Contains(t, all[0], "Subjects perform the action") // grammar before literature
	assert.Equal(t, all, Default().AllAnswers(), "order must be deterministic")
}
