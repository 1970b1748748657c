// Package objtable implements the object side table: the ordered
// sequence of non-string leaf values (arrays, symbol links, executable
// rules, numbers, booleans, spilled strings) addressed by the negative
// range of packed references.
package objtable

// Table holds values appended during compaction. No deduplication is
// performed; non-string leaves are rare and typically distinct.
type Table struct {
	values []any
	frozen bool
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Restore rebuilds a frozen table from serialized values.
func Restore(values []any) *Table {
	return &Table{values: values, frozen: true}
}

// Append adds v and returns its zero-based index.
func (t *Table) Append(v any) int {
	if t.frozen {
		panic("objtable: append after finalize")
	}
	t.values = append(t.values, v)
	return len(t.values) - 1
}

// Finalize freezes the table.
func (t *Table) Finalize() {
	t.frozen = true
}

// At returns the value at index i, or false when i is out of range.
func (t *Table) At(i int) (any, bool) {
	if i < 0 || i >= len(t.values) {
		return nil, false
	}
	return t.values[i], true
}

// Replace overwrites the value at index i. Only the cache loader uses
// this, to patch re-extracted executable rules into their recorded
// positions.
func (t *Table) Replace(i int, v any) bool {
	if i < 0 || i >= len(t.values) {
		return false
	}
	t.values[i] = v
	return true
}

// Len returns the number of stored values.
func (t *Table) Len() int { return len(t.values) }

// Values returns the backing sequence for serialization. Callers must
// not mutate it.
func (t *Table) Values() []any { return t.values }
