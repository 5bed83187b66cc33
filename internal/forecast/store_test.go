package forecast

import (
	"testing"
	"time"

	"retail-ops/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	model := &Model{
		ProductID: "p1",
		TrainedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		FirstDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		LastDate:  time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
		Points:    20,
		Intercept: 4.2,
		Slope:     0.3,
	}
	require.NoError(t, store.Save("p1", model))

	loaded, err := store.Load("p1")
	require.NoError(t, err)
	assert.Equal(t, model, loaded)
}

func TestDiskStoreOverwriteIsLastWriteWins(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("p", &Model{ProductID: "p", Points: 14}))
	require.NoError(t, store.Save("p", &Model{ProductID: "p", Points: 30}))

	loaded, err := store.Load("p")
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.Points)
}

func TestDiskStoreAbsentKey(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("never-trained")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDiskStoreRejectsPathEscapingKeys(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := store.Load(key)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "key %q", key)
	}
}
