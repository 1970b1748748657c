// Package arena implements the string arena of the compacted translation
// index: one append-only byte buffer holding every packed string exactly
// once per (bytes, encoding) pair.
package arena

import (
	"errors"
	"fmt"

	"github.com/Shopify/i18n/pkg/packed"
)

// ErrTooLarge is returned for strings whose byte length exceeds the
// packed reference layout. The caller must route the value through the
// object side table.
var ErrTooLarge = errors.New("arena: string too large to pack")

// ErrArenaFull is returned when appending would push the buffer past the
// addressable offset range.
var ErrArenaFull = errors.New("arena: buffer exceeds addressable size")

type dedupKey struct {
	bytes string
	enc   uint8
}

// Builder accumulates strings during compaction. It is not safe for
// concurrent use; compaction is single-writer.
type Builder struct {
	buf       []byte
	dedup     map[dedupKey]int64
	encodings *EncodingTable
	frozen    bool
}

// NewBuilder returns an empty builder with the fixed encoding table.
func NewBuilder() *Builder {
	return &Builder{
		buf:       make([]byte, 0, 4096),
		dedup:     make(map[dedupKey]int64),
		encodings: NewEncodingTable(),
	}
}

// Encodings exposes the builder's encoding table for classification and
// registration during compaction.
func (b *Builder) Encodings() *EncodingTable { return b.encodings }

// Intern appends data under the given encoding id and returns the packed
// string reference, reusing an existing slice when the same
// (bytes, encoding) pair was interned before.
func (b *Builder) Intern(data []byte, enc uint8) (int64, error) {
	if b.frozen {
		panic("arena: intern after finalize")
	}
	if len(data) > packed.MaxStringLen {
		return 0, ErrTooLarge
	}
	key := dedupKey{bytes: string(data), enc: enc}
	if ref, ok := b.dedup[key]; ok {
		return ref, nil
	}
	offset := uint64(len(b.buf))
	if offset+uint64(len(data)) > packed.MaxArenaBytes {
		return 0, ErrArenaFull
	}
	b.buf = append(b.buf, data...)
	ref := packed.String(enc, offset, len(data))
	b.dedup[key] = ref
	return ref, nil
}

// Len returns the current buffer size in bytes.
func (b *Builder) Len() int { return len(b.buf) }

// Finalize freezes the builder and returns the immutable arena. The
// builder must not be used afterwards.
func (b *Builder) Finalize() *Arena {
	b.frozen = true
	buf := b.buf
	b.buf = nil
	b.dedup = nil
	return &Arena{bytes: buf, encodings: b.encodings}
}

// Arena is the frozen byte buffer plus its encoding table. It is
// immutable and safe for concurrent readers.
type Arena struct {
	bytes     []byte
	encodings *EncodingTable
}

// Restore rebuilds an arena from its serialized parts. Used by the
// cache loader.
func Restore(bytes []byte, encodingNames []string) (*Arena, error) {
	t, ok := RestoreEncodingTable(encodingNames)
	if !ok {
		return nil, fmt.Errorf("arena: invalid encoding table %v", encodingNames)
	}
	return &Arena{bytes: bytes, encodings: t}, nil
}

// Slice returns the raw bytes at [offset, offset+length). It panics when
// the range falls outside the buffer: references are produced only by
// the builder, so an out-of-bounds slice means the index is corrupt.
func (a *Arena) Slice(offset uint64, length int) []byte {
	end := offset + uint64(length)
	if end > uint64(len(a.bytes)) {
		panic(fmt.Sprintf("arena: slice [%d, %d) outside buffer of %d bytes", offset, end, len(a.bytes)))
	}
	return a.bytes[offset:end]
}

// DecodeRef materializes the packed string reference v into a leaf
// value. The result is a fresh copy; callers may mutate it.
func (a *Arena) DecodeRef(v int64) any {
	enc, offset, length := packed.StringParts(v)
	return a.encodings.Decode(a.Slice(offset, length), enc)
}

// Len returns the buffer size in bytes.
func (a *Arena) Len() int { return len(a.bytes) }

// Bytes returns the backing buffer. Callers must not mutate it.
func (a *Arena) Bytes() []byte { return a.bytes }

// Encodings returns the arena's encoding table.
func (a *Arena) Encodings() *EncodingTable { return a.encodings }
