package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNameMentions(t *testing.T) {
	mentions := Extract("Kai Chen called about AT&T and Jean-Luc's invoice.")
	var names []string
	for _, m := range mentions {
		if !m.IsCoreferenceCandidate {
			names = append(names, m.Text)
		}
	}
	assert.Contains(t, names, "Kai Chen")
	assert.Contains(t, names, "AT&T")
	assert.Contains(t, names, "Jean-Luc")
}

func TestExtractCoreferenceMarkers(t *testing.T) {
	mentions := Extract("It needs to ship soon, can you check the order status?")
	found := false
	for _, m := range mentions {
		if m.IsCoreferenceCandidate && m.Text == "It" {
			found = true
			require.Equal(t, 0, m.Offset)
		}
	}
	assert.True(t, found, "expected coreference marker 'It' to be detected")

	mentions2 := Extract("Please follow up on the order before Friday.")
	var orderMention *Mention
	for i := range mentions2 {
		if mentions2[i].IsCoreferenceCandidate && mentions2[i].Text == "the order" {
			orderMention = &mentions2[i]
		}
	}
	require.NotNil(t, orderMention)
}

func TestExtractDoesNotMatchPartialWords(t *testing.T) {
	mentions := Extract("Kitty likes chess.")
	for _, m := range mentions {
		assert.NotEqual(t, "it", m.Text)
	}
}
