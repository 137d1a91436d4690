package session

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	// nothing saved yet: fresh start
	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	rng := rand.New(rand.NewSource(1))
	st := New(sampleQuestions(), 2700, rng)
	st.CurrentIndex = 2
	st.TimeLeft = 1234
	require.True(t, st.RecordChoice(1, 0))
	require.NoError(t, st.RecordAnswer(4, "draft"))
	require.NoError(t, store.Save(st))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, st.Course, got.Course)
	require.Equal(t, st.QuestionOrder, got.QuestionOrder)
	require.Equal(t, st.CurrentIndex, got.CurrentIndex)
	require.Equal(t, st.TimeLeft, got.TimeLeft)
	require.Equal(t, st.Answers, got.Answers)
	require.Equal(t, st.ChoiceMaps, got.ChoiceMaps)
	require.Equal(t, st.OrderingSeqs, got.OrderingSeqs)
	require.Equal(t, st.MatchingRight, got.MatchingRight)

	// the resume keeps answering against the same shuffle
	var stored int
	require.NoError(t, json.Unmarshal(got.Answers["1"], &stored))
	display, ok := got.DisplayedChoice(1)
	require.True(t, ok)
	require.Equal(t, got.ChoiceMaps[1].CanonicalToDisplay[stored], display)
}

func TestFSStoreClearRemovesAllKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	require.NoError(t, store.Save(New(sampleQuestions(), 60, rng)))

	keys := []string{KeyCurrentIndex, KeyAnswers, KeyTimeLeft, KeyQuestionOrder, KeyOptionMaps}
	for _, k := range keys {
		_, err := os.Stat(filepath.Join(dir, k+".json"))
		require.NoError(t, err, k)
	}

	require.NoError(t, store.Clear())
	for _, k := range keys {
		_, err := os.Stat(filepath.Join(dir, k+".json"))
		require.ErrorIs(t, err, os.ErrNotExist, k)
	}

	// clearing twice is fine, and Load reports a fresh start
	require.NoError(t, store.Clear())
	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFSStoreMissingOrderKeyMeansFresh(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	require.NoError(t, store.Save(New(sampleQuestions(), 60, rng)))

	// dropping only the question-order key invalidates the whole session
	require.NoError(t, os.Remove(filepath.Join(dir, KeyQuestionOrder+".json")))
	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)
}
