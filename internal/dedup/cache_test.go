package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenAfterRemember(t *testing.T) {
	c := NewCache(0)

	assert.False(t, c.Seen("abc"))
	c.Remember("abc")
	assert.True(t, c.Seen("abc"))
	assert.False(t, c.Seen("other"))
}

func TestEntriesExpire(t *testing.T) {
	c := NewCache(10 * time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Remember("abc")
	assert.True(t, c.Seen("abc"))

	current = current.Add(11 * time.Minute)
	assert.False(t, c.Seen("abc"))
}

func TestEmptyHashIsNeverADuplicate(t *testing.T) {
	c := NewCache(0)
	c.Remember("")
	assert.False(t, c.Seen(""))
}

func TestRememberSweepsExpired(t *testing.T) {
	c := NewCache(time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Remember("old")
	current = current.Add(2 * time.Minute)
	c.Remember("new")

	assert.Len(t, c.entries, 1)
	assert.True(t, c.Seen("new"))
}
