// Package cache persists the compacted translation index to disk and
// reloads it with fingerprint-based invalidation and atomic writes.
//
// Frame layout, in byte order:
//
//	magic "I18NC" (5 bytes)
//	version        uint32 big-endian
//	fingerprint    uint16 big-endian length + hex digest bytes
//	payload        uint32 big-endian length + snappy-compressed CBOR body
//	checksum       uint32 big-endian CRC-32 (IEEE) of the compressed payload
//
// The CBOR body carries, in order: the flat key separator, schema, value
// columns, string arena
// with its encoding names, object table (executable rules replaced by a
// placeholder marker), subtree child index, and the proc positions map.
// Every failure mode on the way in is a cache miss, never an error the
// caller has to handle.
package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"

	"github.com/Shopify/i18n/pkg/index"
	"github.com/Shopify/i18n/pkg/value"
)

// Version is the current frame version.
const Version uint32 = 1

var magic = []byte("I18NC")

// ErrCorrupt covers every malformed-frame condition: bad magic, wrong
// version, truncated frame, checksum or deserialization failure.
var ErrCorrupt = errors.New("cache: corrupt or incompatible frame")

// ErrUnserializable is returned when the object table holds a value
// kind the codec does not know.
var ErrUnserializable = errors.New("cache: unserializable value kind")

// Wire value kinds.
const (
	kindNil uint8 = iota
	kindString
	kindBinary
	kindText
	kindInt
	kindFloat
	kindBool
	kindList
	kindMap
	kindSymlink
	kindRule // placeholder marker: rules cannot be serialized
)

type wireValue struct {
	Kind uint8       `cbor:"1,keyasint"`
	Str  []byte      `cbor:"2,keyasint,omitempty"`
	Enc  string      `cbor:"3,keyasint,omitempty"`
	Int  int64       `cbor:"4,keyasint,omitempty"`
	Num  float64     `cbor:"5,keyasint,omitempty"`
	Bool bool        `cbor:"6,keyasint,omitempty"`
	List []wireValue `cbor:"7,keyasint,omitempty"`
	Map  []wirePair  `cbor:"8,keyasint,omitempty"`
}

// wirePair keeps map entries ordered; CBOR maps would not preserve the
// distinction.
type wirePair struct {
	Key string    `cbor:"1,keyasint"`
	Val wireValue `cbor:"2,keyasint"`
}

type wireProcRef struct {
	Locale string `cbor:"1,keyasint"`
	Key    string `cbor:"2,keyasint"`
}

type wireSnapshot struct {
	Separator      string                `cbor:"1,keyasint"`
	SchemaKeys     []string              `cbor:"2,keyasint"`
	Columns        map[string][]int64    `cbor:"3,keyasint"`
	ArenaBytes     []byte                `cbor:"4,keyasint"`
	ArenaEncodings []string              `cbor:"5,keyasint"`
	Objects        []wireValue           `cbor:"6,keyasint"`
	Children       map[string][]string   `cbor:"7,keyasint"`
	Procs          map[int][]wireProcRef `cbor:"8,keyasint"`
}

var encMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: cbor enc mode: %v", err))
	}
	encMode = em
}

func toWire(v any) (wireValue, error) {
	switch leaf := v.(type) {
	case nil:
		return wireValue{Kind: kindNil}, nil
	case string:
		return wireValue{Kind: kindString, Str: []byte(leaf)}, nil
	case []byte:
		return wireValue{Kind: kindBinary, Str: leaf}, nil
	case value.Text:
		return wireValue{Kind: kindText, Str: leaf.Bytes, Enc: leaf.Encoding}, nil
	case int64:
		return wireValue{Kind: kindInt, Int: leaf}, nil
	case float64:
		return wireValue{Kind: kindFloat, Num: leaf}, nil
	case bool:
		return wireValue{Kind: kindBool, Bool: leaf}, nil
	case value.Symlink:
		return wireValue{Kind: kindSymlink, Str: []byte(leaf)}, nil
	case value.Rule:
		return wireValue{Kind: kindRule}, nil
	case []any:
		list := make([]wireValue, len(leaf))
		for i, item := range leaf {
			w, err := toWire(item)
			if err != nil {
				return wireValue{}, err
			}
			list[i] = w
		}
		return wireValue{Kind: kindList, List: list}, nil
	case map[string]any:
		keys := make([]string, 0, len(leaf))
		for k := range leaf {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]wirePair, len(keys))
		for i, k := range keys {
			w, err := toWire(leaf[k])
			if err != nil {
				return wireValue{}, err
			}
			pairs[i] = wirePair{Key: k, Val: w}
		}
		return wireValue{Kind: kindMap, Map: pairs}, nil
	default:
		return wireValue{}, fmt.Errorf("%w: %T", ErrUnserializable, v)
	}
}

func fromWire(w wireValue) (any, error) {
	switch w.Kind {
	case kindNil:
		return nil, nil
	case kindString:
		return string(w.Str), nil
	case kindBinary:
		if w.Str == nil {
			return []byte{}, nil
		}
		return w.Str, nil
	case kindText:
		return value.Text{Bytes: w.Str, Encoding: w.Enc}, nil
	case kindInt:
		return w.Int, nil
	case kindFloat:
		return w.Num, nil
	case kindBool:
		return w.Bool, nil
	case kindSymlink:
		return value.Symlink(w.Str), nil
	case kindRule:
		return value.PlaceholderRule, nil
	case kindList:
		list := make([]any, len(w.List))
		for i, item := range w.List {
			v, err := fromWire(item)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case kindMap:
		m := make(map[string]any, len(w.Map))
		for _, pair := range w.Map {
			v, err := fromWire(pair.Val)
			if err != nil {
				return nil, err
			}
			m[pair.Key] = v
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: wire kind %d", ErrCorrupt, w.Kind)
	}
}

// Encode frames snap with the given fingerprint.
func Encode(snap *index.Snapshot, fingerprint string) ([]byte, error) {
	ws := wireSnapshot{
		Separator:      snap.Separator,
		SchemaKeys:     snap.SchemaKeys,
		Columns:        snap.Columns,
		ArenaBytes:     snap.ArenaBytes,
		ArenaEncodings: snap.ArenaEncodings,
		Children:       snap.Children,
	}

	ws.Objects = make([]wireValue, len(snap.Objects))
	for i, obj := range snap.Objects {
		w, err := toWire(obj)
		if err != nil {
			return nil, err
		}
		ws.Objects[i] = w
	}

	ws.Procs = make(map[int][]wireProcRef, len(snap.ProcPositions))
	for idx, refs := range snap.ProcPositions {
		wr := make([]wireProcRef, len(refs))
		for i, ref := range refs {
			wr[i] = wireProcRef{Locale: ref.Locale, Key: ref.Key}
		}
		ws.Procs[idx] = wr
	}

	body, err := encMode.Marshal(&ws)
	if err != nil {
		return nil, fmt.Errorf("cache: encode body: %w", err)
	}
	payload := snappy.Encode(nil, body)

	var buf bytes.Buffer
	buf.Grow(len(magic) + 4 + 2 + len(fingerprint) + 4 + len(payload) + 4)
	buf.Write(magic)
	binary.Write(&buf, binary.BigEndian, Version)
	binary.Write(&buf, binary.BigEndian, uint16(len(fingerprint)))
	buf.WriteString(fingerprint)
	binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(payload))
	return buf.Bytes(), nil
}

// Header is the cheap-to-read prefix of a frame.
type Header struct {
	Version     uint32
	Fingerprint string
}

// readHeader parses the frame prefix and returns the remaining bytes
// (payload length + payload + checksum).
func readHeader(data []byte) (Header, []byte, error) {
	if len(data) < len(magic)+4+2 {
		return Header{}, nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return Header{}, nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	rest := data[len(magic):]
	version := binary.BigEndian.Uint32(rest)
	rest = rest[4:]
	if version != Version {
		return Header{}, nil, fmt.Errorf("%w: version %d", ErrCorrupt, version)
	}
	fpLen := int(binary.BigEndian.Uint16(rest))
	rest = rest[2:]
	if len(rest) < fpLen {
		return Header{}, nil, fmt.Errorf("%w: truncated fingerprint", ErrCorrupt)
	}
	h := Header{Version: version, Fingerprint: string(rest[:fpLen])}
	return h, rest[fpLen:], nil
}

// Decode parses a full frame back into a snapshot.
func Decode(data []byte) (*index.Snapshot, Header, error) {
	h, rest, err := readHeader(data)
	if err != nil {
		return nil, Header{}, err
	}
	if len(rest) < 8 {
		return nil, Header{}, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}
	payloadLen := int(binary.BigEndian.Uint32(rest))
	rest = rest[4:]
	if len(rest) < payloadLen+4 {
		return nil, Header{}, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}
	payload := rest[:payloadLen]
	sum := binary.BigEndian.Uint32(rest[payloadLen:])
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, Header{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	body, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var ws wireSnapshot
	if err := cbor.Unmarshal(body, &ws); err != nil {
		return nil, Header{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	snap := &index.Snapshot{
		Separator:      ws.Separator,
		SchemaKeys:     ws.SchemaKeys,
		Columns:        ws.Columns,
		ArenaBytes:     ws.ArenaBytes,
		ArenaEncodings: ws.ArenaEncodings,
		Children:       ws.Children,
	}
	snap.Objects = make([]any, len(ws.Objects))
	for i, w := range ws.Objects {
		v, err := fromWire(w)
		if err != nil {
			return nil, Header{}, err
		}
		snap.Objects[i] = v
	}
	snap.ProcPositions = make(map[int][]index.ProcRef, len(ws.Procs))
	for idx, refs := range ws.Procs {
		pr := make([]index.ProcRef, len(refs))
		for i, ref := range refs {
			pr[i] = index.ProcRef{Locale: ref.Locale, Key: ref.Key}
		}
		snap.ProcPositions[idx] = pr
	}
	return snap, h, nil
}

// PeekHeader reads just the frame prefix, without touching the payload.
func PeekHeader(data []byte) (Header, error) {
	h, _, err := readHeader(data)
	return h, err
}
