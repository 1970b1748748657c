package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shopify/i18n/pkg/packed"
	"github.com/Shopify/i18n/pkg/value"
)

func mustCompact(t *testing.T, trees map[string]map[string]any, opts ...Option) *Index {
	t.Helper()
	ix, err := Compact(trees, opts...)
	require.NoError(t, err)
	return ix
}

func TestLeafAndSubtreeLookup(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"foo": map[string]any{"bar": "baz"}},
	})

	v, ok := ix.Lookup("en", "foo.bar")
	require.True(t, ok)
	assert.Equal(t, "baz", v)

	v, ok = ix.Lookup("en", "foo")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"bar": "baz"}, v)
}

func TestLookupStripsLocalePrefix(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"foo": map[string]any{"bar": "baz"}},
	})

	v, ok := ix.Lookup("en", "en.foo.bar")
	require.True(t, ok)
	assert.Equal(t, "baz", v)
}

func TestLookupMisses(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"present": "yes"},
		"fr": {"other": "oui"},
	})

	_, ok := ix.Lookup("en", "absent")
	assert.False(t, ok, "unknown key")

	_, ok = ix.Lookup("de", "present")
	assert.False(t, ok, "locale without a column")

	_, ok = ix.Lookup("fr", "present")
	assert.False(t, ok, "key defined only by another locale")
}

func TestStringDedup(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"a": "hello", "b": "hello"},
	})

	col := ix.columns["en"]
	ia, _ := ix.schema.Lookup("a")
	ib, _ := ix.schema.Lookup("b")
	assert.Equal(t, col[ia], col[ib], "equal strings must pack bit-for-bit equal")
	assert.Equal(t, len("hello"), ix.arena.Len(), "arena holds one copy")
}

func TestArrayLeaf(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"items": []any{"red", "green", "blue"}},
	})

	v, ok := ix.Lookup("en", "items")
	require.True(t, ok)
	assert.Equal(t, []any{"red", "green", "blue"}, v)
}

func TestArrayContainingNestedMaps(t *testing.T) {
	items := []any{
		map[string]any{"name": "first", "count": int64(1)},
		"plain",
	}
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"list": items},
	})

	v, ok := ix.Lookup("en", "list")
	require.True(t, ok)
	assert.Equal(t, items, v)
	assert.Equal(t, 1, ix.objects.Len(), "the whole array is one object slot")
}

func TestOversizeStringSpills(t *testing.T) {
	big := strings.Repeat("x", 70000)
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"big": big, "small": "y"},
	})

	v, ok := ix.Lookup("en", "big")
	require.True(t, ok)
	assert.Equal(t, big, v)
	assert.Equal(t, 1, ix.objects.Len())

	idx, _ := ix.schema.Lookup("big")
	word := ix.columns["en"][idx]
	assert.True(t, packed.IsObject(word), "no packed string reference may exist for the spilled key")
}

func TestPackBoundary(t *testing.T) {
	exact := strings.Repeat("a", packed.MaxStringLen)
	over := strings.Repeat("b", packed.MaxStringLen+1)
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"exact": exact, "over": over},
	})

	iExact, _ := ix.schema.Lookup("exact")
	assert.True(t, packed.IsString(ix.columns["en"][iExact]))

	iOver, _ := ix.schema.Lookup("over")
	assert.True(t, packed.IsObject(ix.columns["en"][iOver]))

	v, ok := ix.Lookup("en", "over")
	require.True(t, ok)
	assert.Equal(t, over, v)
}

func TestEmptyLocale(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"msg": "hi"},
		"zu": {},
	})

	assert.True(t, ix.Compacted("zu"))
	_, ok := ix.Lookup("zu", "msg")
	assert.False(t, ok)
}

func TestSingleRootLeaf(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"hello": "world"},
	})

	v, ok := ix.Lookup("en", "hello")
	require.True(t, ok)
	assert.Equal(t, "world", v)
	assert.Equal(t, 1, ix.Stats().SchemaKeys)
}

func TestNonStringLeaves(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {
			"count":  42,
			"rate":   1.5,
			"flag":   true,
			"link":   value.Symlink("other.key"),
			"binary": []byte{0x01, 0xff},
		},
	})

	v, _ := ix.Lookup("en", "count")
	assert.Equal(t, int64(42), v, "integer kinds normalize to int64")

	v, _ = ix.Lookup("en", "rate")
	assert.Equal(t, 1.5, v)

	v, _ = ix.Lookup("en", "flag")
	assert.Equal(t, true, v)

	v, _ = ix.Lookup("en", "link")
	assert.Equal(t, value.Symlink("other.key"), v, "links surface as symbols")

	v, _ = ix.Lookup("en", "binary")
	assert.Equal(t, []byte{0x01, 0xff}, v)
}

func TestNilLeafIsNotFound(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"gone": nil, "sub": map[string]any{"gone": nil, "kept": "v"}},
	})

	_, ok := ix.Lookup("en", "gone")
	assert.False(t, ok)

	v, ok := ix.Lookup("en", "sub")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"kept": "v"}, v, "nil children are omitted from subtrees")
}

func TestRuleLeafAndProcPositions(t *testing.T) {
	rule := value.Rule(func(string, map[string]any) any { return "ruled" })
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"plural": map[string]any{"rule": rule}},
	})

	v, ok := ix.Lookup("en", "plural.rule")
	require.True(t, ok)
	got, isRule := v.(value.Rule)
	require.True(t, isRule)
	assert.Equal(t, "ruled", got("", nil))

	require.Len(t, ix.procs, 1)
	for _, refs := range ix.procs {
		assert.Equal(t, []ProcRef{{Locale: "en", Key: "plural.rule"}}, refs)
	}
}

func TestTaggedTextLeaf(t *testing.T) {
	txt := value.Text{Bytes: []byte{0x82, 0xa0}, Encoding: "Shift_JIS"}
	ix := mustCompact(t, map[string]map[string]any{
		"ja": {"greeting": txt},
	})

	v, ok := ix.Lookup("ja", "greeting")
	require.True(t, ok)
	assert.Equal(t, txt, v)
}

func TestDecompactRemovesOnlyTargetLocale(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"g": "Hi"},
		"fr": {"g": "Salut"},
	})

	tree, ok := ix.Decompact("en")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"g": "Hi"}, tree)

	assert.False(t, ix.Compacted("en"))
	_, ok = ix.Lookup("en", "g")
	assert.False(t, ok)

	v, ok := ix.Lookup("fr", "g")
	require.True(t, ok)
	assert.Equal(t, "Salut", v, "other locales still resolve via the compacted path")

	_, ok = ix.Decompact("en")
	assert.False(t, ok, "second decompaction finds no column")
}

func TestDecompactRebuildsNesting(t *testing.T) {
	src := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
			"d": []any{"x"},
		},
		"e": "top",
	}
	ix := mustCompact(t, map[string]map[string]any{"en": src})

	tree, ok := ix.Decompact("en")
	require.True(t, ok)
	assert.Equal(t, src, tree)
}

func TestLeafSubtreeConflictRejected(t *testing.T) {
	_, err := Compact(map[string]map[string]any{
		"en": {"a": "leaf"},
		"fr": {"a": map[string]any{"b": "subtree"}},
	})
	assert.ErrorIs(t, err, ErrKeyConflict)
}

func TestCustomSeparator(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"a": map[string]any{"b": "v"}},
	}, WithSeparator("|"))

	v, ok := ix.Lookup("en", "a|b")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = ix.Lookup("en", "a.b")
	assert.False(t, ok)
}

func TestLookupAllocatesFreshStrings(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"raw": []byte("abc")},
	})

	v, _ := ix.Lookup("en", "raw")
	v.([]byte)[0] = 'z'

	again, _ := ix.Lookup("en", "raw")
	assert.Equal(t, []byte("abc"), again, "consumers may mutate returned values")
}

func TestVerifyCatchesCorruptColumn(t *testing.T) {
	ix := mustCompact(t, map[string]map[string]any{
		"en": {"k": "v"},
	})
	require.NoError(t, ix.Verify())

	idx, _ := ix.schema.Lookup("k")
	ix.columns["en"][idx] = packed.String(0, 1<<20, 100)
	assert.ErrorIs(t, ix.Verify(), ErrBadSnapshot)
}

func TestCompactIsDeterministic(t *testing.T) {
	trees := map[string]map[string]any{
		"en": {"b": "2", "a": "1", "c": map[string]any{"z": "26", "y": "25"}},
		"fr": {"a": "un"},
	}

	ix1 := mustCompact(t, trees)
	ix2 := mustCompact(t, trees)

	assert.Equal(t, ix1.schema.Keys(), ix2.schema.Keys())
	assert.Equal(t, ix1.arena.Bytes(), ix2.arena.Bytes())
	assert.Equal(t, ix1.columns, ix2.columns)
}
