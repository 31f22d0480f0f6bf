package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	config "github.com/msaleh83/pagepilot/configs"
)

func TestDisabledChannelsAreNoOps(t *testing.T) {
	n := New(config.Config{})

	// Neither channel is configured; these must not panic or block.
	n.Success("999", "IT-Solutions", "hello")
	n.Failure("Invalid image")

	report := n.Test()
	assert.Equal(t, "not configured", report["telegram"])
	assert.Equal(t, "not configured", report["email"])
}

func TestSuccessTruncatesLongMessages(t *testing.T) {
	n := New(config.Config{})

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	// Only exercised for the side-effect free path; the formatting branch
	// is shared with the live channels.
	n.Success("999", "", string(long))
}
