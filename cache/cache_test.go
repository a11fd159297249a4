package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set("k", []byte("payload"), time.Minute))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Overwrite
	require.NoError(t, s.Set("k", []byte("fresh"), time.Minute))
	got, _ = s.Get("k")
	assert.Equal(t, []byte("fresh"), got)
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set("short", []byte("x"), 10*time.Millisecond))
	_, err := s.Get("short")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	_, err = s.Get("short")
	assert.ErrorIs(t, err, ErrMiss)

	// Zero TTL stores nothing
	require.NoError(t, s.Set("never", []byte("x"), 0))
	_, err = s.Get("never")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreDeletePattern(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set("project_list:1:/a", []byte("x"), time.Minute))
	require.NoError(t, s.Set("project_list:1:/b", []byte("x"), time.Minute))
	require.NoError(t, s.Set("project_list:12:/a", []byte("x"), time.Minute))
	require.NoError(t, s.Set("task_list:slug:1:/a", []byte("x"), time.Minute))

	n, err := s.DeletePattern("project_list:1:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Get("project_list:1:/a")
	assert.ErrorIs(t, err, ErrMiss)

	// The :1: prefix must not swallow user 12's entries
	_, err = s.Get("project_list:12:/a")
	assert.NoError(t, err)
	_, err = s.Get("task_list:slug:1:/a")
	assert.NoError(t, err)
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore()
	s.Close()
	s.Close()
}
