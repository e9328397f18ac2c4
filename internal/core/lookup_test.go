package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fbhwc/internal/model"
)

func TestLookupByID(t *testing.T) {
	events := []model.Event{
		{ID: "01HAAAA1", Kind: model.CallbackHotplug},
		{ID: "01HAAAB2", Kind: model.CallbackVsync},
		{ID: "01HBCCC3", Kind: model.CallbackRefresh},
	}

	t.Run("exact", func(t *testing.T) {
		e, err := LookupByID(events, "01HAAAB2")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, model.CallbackVsync, e.Kind)
	})

	t.Run("unique prefix is case insensitive", func(t *testing.T) {
		e, err := LookupByID(events, "01hb")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, "01HBCCC3", e.ID)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := LookupByID(events, "01HAAA")
		assert.Error(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		e, err := LookupByID(events, "ZZZ")
		require.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("empty id", func(t *testing.T) {
		e, err := LookupByID(events, "  ")
		require.NoError(t, err)
		assert.Nil(t, e)
	})
}

func TestUniqueDisplays(t *testing.T) {
	events := testEvents(time.Now())
	assert.Equal(t, []model.DisplayHandle{0, 1}, UniqueDisplays(events))
	assert.Empty(t, UniqueDisplays(nil))
}

func TestCountByKind(t *testing.T) {
	counts := CountByKind(testEvents(time.Now()))
	assert.Equal(t, 2, counts[model.CallbackHotplug])
	assert.Equal(t, 2, counts[model.CallbackVsync])
	assert.Equal(t, 1, counts[model.CallbackRefresh])
}
