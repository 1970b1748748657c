// Package value defines the leaf value kinds a translation tree may hold
// beyond plain strings: symbol links, executable rules, and text tagged
// with a non-standard character encoding.
package value

import "reflect"

// Symlink is a leaf whose payload is another flat key. The lookup engine
// resolves it transitively.
type Symlink string

// Rule is an executable leaf, typically a pluralization or formatting
// callback. Rules cannot be serialized; the cache layer records their
// positions and patches re-extracted rules back in on load.
type Rule func(key string, options map[string]any) any

// Text is a string leaf carrying an explicit character encoding that is
// not one of UTF-8, US-ASCII, or raw binary.
type Text struct {
	Bytes    []byte
	Encoding string
}

// PlaceholderRule stands in for an executable rule that could not be
// re-extracted after a cache load. It is a no-op: consumers expecting a
// callable value must check with IsPlaceholder.
var PlaceholderRule Rule = func(string, map[string]any) any { return nil }

// IsPlaceholder reports whether v is the placeholder rule installed by
// the cache loader.
func IsPlaceholder(v any) bool {
	r, ok := v.(Rule)
	if !ok {
		return false
	}
	return reflect.ValueOf(r).Pointer() == reflect.ValueOf(PlaceholderRule).Pointer()
}

// IsRule reports whether v is an executable rule (placeholder included).
func IsRule(v any) bool {
	_, ok := v.(Rule)
	return ok
}
