package arena

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shopify/i18n/pkg/packed"
	"github.com/Shopify/i18n/pkg/value"
)

func TestInternDedup(t *testing.T) {
	b := NewBuilder()

	r1, err := b.Intern([]byte("hello"), EncUTF8)
	require.NoError(t, err)
	r2, err := b.Intern([]byte("hello"), EncUTF8)
	require.NoError(t, err)

	assert.Equal(t, r1, r2, "identical (bytes, encoding) must pack identically")
	assert.Equal(t, 5, b.Len(), "second intern must not grow the buffer")
}

func TestInternDistinguishesEncoding(t *testing.T) {
	b := NewBuilder()

	r1, err := b.Intern([]byte("hello"), EncUTF8)
	require.NoError(t, err)
	r2, err := b.Intern([]byte("hello"), EncBinary)
	require.NoError(t, err)

	assert.NotEqual(t, r1, r2)
	assert.Equal(t, 10, b.Len())
}

func TestInternBoundary(t *testing.T) {
	b := NewBuilder()

	exact := []byte(strings.Repeat("a", packed.MaxStringLen))
	ref, err := b.Intern(exact, EncASCII)
	require.NoError(t, err)
	_, _, length := packed.StringParts(ref)
	assert.Equal(t, packed.MaxStringLen, length)

	over := []byte(strings.Repeat("a", packed.MaxStringLen+1))
	_, err = b.Intern(over, EncASCII)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFinalizeAndDecode(t *testing.T) {
	b := NewBuilder()
	ref, err := b.Intern([]byte("héllo"), EncUTF8)
	require.NoError(t, err)
	bin, err := b.Intern([]byte{0xff, 0x00, 0x01}, EncBinary)
	require.NoError(t, err)

	a := b.Finalize()

	assert.Equal(t, "héllo", a.DecodeRef(ref))
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, a.DecodeRef(bin))

	// Decoded values are defensive copies.
	got := a.DecodeRef(bin).([]byte)
	got[0] = 0x7f
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, a.DecodeRef(bin))
}

func TestInternAfterFinalizePanics(t *testing.T) {
	b := NewBuilder()
	b.Finalize()
	assert.Panics(t, func() { _, _ = b.Intern([]byte("x"), EncUTF8) })
}

func TestSliceOutOfBoundsPanics(t *testing.T) {
	b := NewBuilder()
	_, err := b.Intern([]byte("abc"), EncUTF8)
	require.NoError(t, err)
	a := b.Finalize()
	assert.Panics(t, func() { a.Slice(1, 3) })
}

func TestClassifyString(t *testing.T) {
	assert.Equal(t, EncASCII, ClassifyString("plain"))
	assert.Equal(t, EncASCII, ClassifyString(""))
	assert.Equal(t, EncUTF8, ClassifyString("héllo"))
	assert.Equal(t, EncBinary, ClassifyString(string([]byte{0xff, 0xfe})))
}

func TestEncodingTableRegister(t *testing.T) {
	tab := NewEncodingTable()

	id, ok := tab.Register("Shift_JIS")
	require.True(t, ok)
	assert.Equal(t, uint8(4), id)

	again, ok := tab.Register("Shift_JIS")
	require.True(t, ok)
	assert.Equal(t, id, again)

	// Fill the id space; registration must start failing rather than
	// overflow the 4-bit field.
	for i := 0; ; i++ {
		_, ok := tab.Register(strings.Repeat("x", i+1))
		if !ok {
			break
		}
		require.Less(t, i, packed.MaxEncoding)
	}
}

func TestTaggedTextDecode(t *testing.T) {
	tab := NewEncodingTable()
	id, ok := tab.Register("Shift_JIS")
	require.True(t, ok)

	v := tab.Decode([]byte{0x82, 0xa0}, id)
	text, ok := v.(value.Text)
	require.True(t, ok)
	assert.Equal(t, "Shift_JIS", text.Encoding)
	assert.True(t, bytes.Equal([]byte{0x82, 0xa0}, text.Bytes))
}

func TestRestore(t *testing.T) {
	b := NewBuilder()
	ref, err := b.Intern([]byte("msg"), EncASCII)
	require.NoError(t, err)
	a := b.Finalize()

	restored, err := Restore(a.Bytes(), a.Encodings().Names())
	require.NoError(t, err)
	assert.Equal(t, "msg", restored.DecodeRef(ref))

	_, err = Restore(nil, []string{"UTF-8"})
	assert.Error(t, err)
}
