package arena

import (
	"unicode/utf8"

	"github.com/Shopify/i18n/pkg/packed"
	"github.com/Shopify/i18n/pkg/value"
)

// Fixed encoding ids. Ids 3..15 are assignable through the table's
// registry, with 3 pre-registered as the generic fallback.
const (
	EncUTF8   uint8 = 0
	EncASCII  uint8 = 1
	EncBinary uint8 = 2
	EncOther  uint8 = 3
)

const (
	nameUTF8   = "UTF-8"
	nameASCII  = "US-ASCII"
	nameBinary = "binary"
	nameOther  = "other"
)

// EncodingTable maps the 4-bit encoding id of a packed string reference
// to an encoding name. The first four entries are fixed; further names
// may be registered until the id space (16 entries) is exhausted.
type EncodingTable struct {
	names []string
	ids   map[string]uint8
}

// NewEncodingTable returns a table holding the fixed entries.
func NewEncodingTable() *EncodingTable {
	t := &EncodingTable{
		names: []string{nameUTF8, nameASCII, nameBinary, nameOther},
	}
	t.ids = make(map[string]uint8, len(t.names))
	for i, n := range t.names {
		t.ids[n] = uint8(i)
	}
	return t
}

// RestoreEncodingTable rebuilds a table from its serialized name list.
// Used by the cache loader; the fixed prefix must be intact.
func RestoreEncodingTable(names []string) (*EncodingTable, bool) {
	if len(names) < 4 || len(names) > packed.MaxEncoding+1 {
		return nil, false
	}
	if names[0] != nameUTF8 || names[1] != nameASCII || names[2] != nameBinary || names[3] != nameOther {
		return nil, false
	}
	t := &EncodingTable{names: append([]string(nil), names...)}
	t.ids = make(map[string]uint8, len(t.names))
	for i, n := range t.names {
		t.ids[n] = uint8(i)
	}
	return t, true
}

// Register returns the id for name, assigning a new one if needed.
// ok is false when the id space is full; the caller should spill the
// value to the object side table instead.
func (t *EncodingTable) Register(name string) (uint8, bool) {
	if id, ok := t.ids[name]; ok {
		return id, true
	}
	if len(t.names) > packed.MaxEncoding {
		return 0, false
	}
	id := uint8(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id, true
}

// Name returns the encoding name for id, falling back to the generic
// entry for ids the table does not know.
func (t *EncodingTable) Name(id uint8) string {
	if int(id) < len(t.names) {
		return t.names[id]
	}
	return nameOther
}

// Names returns the serialized form of the table.
func (t *EncodingTable) Names() []string {
	return append([]string(nil), t.names...)
}

// ClassifyString picks the encoding id for a plain string leaf.
func ClassifyString(s string) uint8 {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return EncASCII
	}
	if utf8.ValidString(s) {
		return EncUTF8
	}
	return EncBinary
}

// Decode materializes an arena slice into the leaf value its encoding
// dictates. The returned value never aliases b.
func (t *EncodingTable) Decode(b []byte, id uint8) any {
	switch id {
	case EncUTF8, EncASCII:
		return string(b)
	case EncBinary:
		return append([]byte(nil), b...)
	default:
		return value.Text{
			Bytes:    append([]byte(nil), b...),
			Encoding: t.Name(id),
		}
	}
}
