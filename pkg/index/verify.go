package index

import (
	"fmt"

	"github.com/Shopify/i18n/pkg/packed"
)

// Verify checks the structural invariants of the index:
//
//  1. every column word is absent, the subtree sentinel, a string
//     reference inside the arena, or an object reference inside the
//     object table;
//  2. a column whose schema key has a descendant holds the sentinel or
//     nothing;
//  3. schema indices are dense (columns never exceed the schema);
//  4. no column is longer than the schema.
//
// Compaction establishes these by construction; Verify exists for
// snapshots read from disk and for debugging.
func (ix *Index) Verify() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := ix.schema.Len()
	for locale, col := range ix.columns {
		if len(col) > n {
			return &IndexError{
				Op:     "Verify",
				Locale: locale,
				Cause:  fmt.Errorf("%w: column has %d entries for %d schema keys", ErrBadSnapshot, len(col), n),
			}
		}
		for idx, word := range col {
			if err := ix.verifyWord(word); err != nil {
				return &IndexError{Op: "Verify", Locale: locale, Key: ix.schema.Key(idx), Cause: err}
			}
		}
	}

	return ix.checkLeafSubtreeConflicts()
}

func (ix *Index) verifyWord(word int64) error {
	switch {
	case packed.IsAbsent(word), packed.IsSubtree(word):
		return nil
	case packed.IsString(word):
		_, offset, length := packed.StringParts(word)
		if offset+uint64(length) > uint64(ix.arena.Len()) {
			return fmt.Errorf("%w: string reference [%d, %d) outside arena of %d bytes",
				ErrBadSnapshot, offset, offset+uint64(length), ix.arena.Len())
		}
		return nil
	default:
		idx := packed.ObjectIndex(word)
		if _, ok := ix.objects.At(idx); !ok {
			return fmt.Errorf("%w: object reference %d outside table of %d entries",
				ErrBadSnapshot, idx, ix.objects.Len())
		}
		return nil
	}
}
