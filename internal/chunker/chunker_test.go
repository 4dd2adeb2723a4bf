package chunker

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSize(t *testing.T) {
	payload := bytes.Repeat([]byte("abcd"), 10) // 40 bytes
	c := NewSize(bytes.NewReader(payload), 16)

	var pieces [][]byte
	for {
		p, err := c.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		pieces = append(pieces, p)
	}

	require.Len(t, pieces, 3)
	assert.Equal(t, payload[:16], pieces[0])
	assert.Equal(t, payload[16:32], pieces[1])
	assert.Equal(t, payload[32:], pieces[2]) // short tail, 8 bytes
}
