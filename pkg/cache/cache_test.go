package cache

import (
	"context"
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string
	Count int
}

func newTestCache() Cache {
	l := log.New()
	l.SetOutput(io.Discard)
	return NewMemory(time.Minute, log.NewEntry(l))
}

func TestGetSetInvalidate(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	var got []*entry
	assert.False(t, c.Get(ctx, "k", &got))

	c.Set(ctx, "k", []*entry{{Name: "a", Count: 1}, {Name: "b", Count: 2}})
	require.True(t, c.Get(ctx, "k", &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, 2, got[1].Count)

	c.Invalidate(ctx, "k", "never-set")
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestNewStoreRejectsBadRedisURL(t *testing.T) {
	_, err := NewStore("not a url", time.Minute)
	assert.Error(t, err)
}
