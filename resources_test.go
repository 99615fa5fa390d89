package souko_test

import (
	"testing"

	"github.com/soukolabs/souko"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assetTable struct {
	Root string
}

type frameClock struct {
	Frame int
}

func TestResourcesAddGet(t *testing.T) {
	r := souko.NewResources()
	souko.AddResource(r, &assetTable{Root: "/data"})

	require.True(t, souko.HasResource[assetTable](r))
	got := souko.GetResource[assetTable](r)
	require.NotNil(t, got)
	assert.Equal(t, "/data", got.Root)

	assert.Nil(t, souko.GetResource[frameClock](r))
	assert.False(t, souko.HasResource[frameClock](r))
}

func TestResourcesDuplicatePanics(t *testing.T) {
	r := souko.NewResources()
	souko.AddResource(r, &assetTable{})
	assert.Panics(t, func() { souko.AddResource(r, &assetTable{}) })
}

func TestResourcesRemoveAndReuse(t *testing.T) {
	r := souko.NewResources()
	souko.AddResource(r, &assetTable{})
	souko.AddResource(r, &frameClock{})
	require.Equal(t, 2, r.Len())

	souko.RemoveResource[assetTable](r)
	assert.False(t, souko.HasResource[assetTable](r))
	assert.Equal(t, 1, r.Len())

	// Freed slot is reused by the next add.
	souko.AddResource(r, &assetTable{Root: "/other"})
	assert.Equal(t, "/other", souko.GetResource[assetTable](r).Root)
	assert.Equal(t, 2, r.Len())

	souko.RemoveResource[assetTable](r)
	souko.RemoveResource[assetTable](r) // no-op
	assert.Equal(t, 1, r.Len())
}

func TestResourcesClear(t *testing.T) {
	r := souko.NewResources()
	souko.AddResource(r, &assetTable{})
	souko.AddResource(r, &frameClock{})
	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.False(t, souko.HasResource[assetTable](r))
	souko.AddResource(r, &assetTable{})
	assert.True(t, souko.HasResource[assetTable](r))
}
