package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	url, err := m.Put(ctx, "doc-1", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://doc-1", url)

	data, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	_, err := m.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	original := []byte("abc")
	_, err := m.Put(ctx, "k", original, "text/plain")
	require.NoError(t, err)
	original[0] = 'z'

	data, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestNewWithoutEndpointUsesMemory(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), Config{})
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}
