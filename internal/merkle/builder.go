package merkle

import (
	"context"
	"fmt"
)

// Builder is an io.Writer that turns streamed content into leaves without
// holding more than one chunk in memory.
//
// Bytes accumulate in a rolling buffer; every time it holds chunkSize bytes
// exactly that many are hashed into a new leaf and the buffer advances. Finish
// hashes the non-empty remainder, unpadded, as the last leaf.
type Builder struct {
	ctx       context.Context
	chunkSize int
	hash      HashFunc
	buf       []byte
	leaves    [][]byte
	written   int64
	err       error
}

// NewBuilder returns a Builder that checks ctx after every completed chunk.
func NewBuilder(ctx context.Context, chunkSize int, hash HashFunc) (*Builder, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrChunkSize, chunkSize)
	}
	if hash == nil {
		hash = Blake3
	}
	return &Builder{
		ctx:       ctx,
		chunkSize: chunkSize,
		hash:      hash,
		buf:       make([]byte, 0, chunkSize),
	}, nil
}

// Write consumes p. After cancellation it drops every leaf and keeps
// returning the context error.
func (b *Builder) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}

	n := len(p)
	for len(p) > 0 {
		room := b.chunkSize - len(b.buf)
		take := min(room, len(p))
		b.buf = append(b.buf, p[:take]...)
		p = p[take:]

		if len(b.buf) == b.chunkSize {
			b.leaves = append(b.leaves, b.hash(b.buf))
			b.buf = b.buf[:0]

			if err := b.ctx.Err(); err != nil {
				b.fail(err)
				return n - len(p), err
			}
		}
	}

	b.written += int64(n)
	return n, nil
}

func (b *Builder) fail(err error) {
	b.err = err
	b.leaves = nil
	b.buf = nil
}

// Written returns the number of content bytes consumed so far.
func (b *Builder) Written() int64 {
	return b.written
}

// Finish hashes the remainder and builds the tree. The Builder must not be
// used afterwards.
func (b *Builder) Finish() (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.ctx.Err(); err != nil {
		b.fail(err)
		return nil, err
	}

	if len(b.buf) > 0 {
		b.leaves = append(b.leaves, b.hash(b.buf))
		b.buf = b.buf[:0]
	}

	t := New(b.leaves, b.hash)
	b.leaves = nil
	return t, nil
}
