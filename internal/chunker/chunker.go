// Package chunker splits a payload stream into stripe-sized pieces.
package chunker

import (
	"io"

	boxochunker "github.com/ipfs/boxo/chunker"
)

// Chunker yields consecutive pieces of a stream.
type Chunker interface {
	// Next returns the next piece. It returns io.EOF when the stream is
	// exhausted. The final piece may be shorter than the configured size;
	// the caller pads it.
	Next() ([]byte, error)
}

// NewSize returns a Chunker cutting fixed pieces of the given size.
// Striping needs stable offsets, so only the size splitter is offered;
// content-defined chunking would move stripe boundaries with the data.
func NewSize(r io.Reader, size int64) Chunker {
	return &boxoChunkerWrapper{
		splitter: boxochunker.NewSizeSplitter(r, size),
	}
}

type boxoChunkerWrapper struct {
	splitter boxochunker.Splitter
}

func (c *boxoChunkerWrapper) Next() ([]byte, error) {
	return c.splitter.NextBytes()
}
