package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyFor_OrderIndependent(t *testing.T) {
	assert.Equal(t, PairKeyFor("alice", "bob"), PairKeyFor("bob", "alice"))
	assert.Equal(t, "alice:bob", PairKeyFor("bob", "alice"))
}

func TestPairKeyFor_DistinctPairs(t *testing.T) {
	assert.NotEqual(t, PairKeyFor("alice", "bob"), PairKeyFor("alice", "carol"))
}

func TestMessageReadBy(t *testing.T) {
	msg := Message{
		ID: "m-1",
		Reads: []MessageRead{
			{MessageID: "m-1", UserID: "alice"},
			{MessageID: "m-1", UserID: "bob"},
		},
	}
	assert.Equal(t, []string{"alice", "bob"}, msg.ReadBy())

	empty := Message{ID: "m-2"}
	assert.Empty(t, empty.ReadBy())
}
