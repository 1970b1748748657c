package cache

import (
	"fmt"
	"os"

	"github.com/Shopify/i18n/pkg/index"
	"github.com/Shopify/i18n/pkg/logging"
	"github.com/Shopify/i18n/pkg/metrics"
)

// Save writes the encoded frame for snap to path via a process-unique
// temp file and an atomic rename. The cache is advisory: every failure
// is swallowed after logging and counting it, and the temp file is
// unlinked. The return value reports whether the frame landed; callers
// that don't care may ignore it.
func Save(path string, snap *index.Snapshot, fingerprint string, log logging.Logger, m *metrics.Registry) bool {
	if log == nil {
		log = logging.NewNopLogger()
	}

	frame, err := Encode(snap, fingerprint)
	if err != nil {
		log.Warn("cache write skipped", logging.String("path", path), logging.Err(err))
		m.RecordCacheWriteFailure()
		return false
	}

	tmp := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmp, frame, 0o644); err != nil {
		log.Warn("cache write skipped", logging.String("path", path), logging.Err(err))
		m.RecordCacheWriteFailure()
		os.Remove(tmp)
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Warn("cache write skipped", logging.String("path", path), logging.Err(err))
		m.RecordCacheWriteFailure()
		os.Remove(tmp)
		return false
	}

	log.Info("cache written",
		logging.String("path", path),
		logging.Int("bytes", len(frame)))
	return true
}

// Load reads the frame at path and returns its snapshot when the frame
// is intact and its fingerprint equals want. Every other outcome
// (missing file, corrupt frame, wrong version, fingerprint mismatch) is
// a cache miss: the caller proceeds with a fresh compaction.
func Load(path, want string, log logging.Logger, m *metrics.Registry) (*index.Snapshot, bool) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		m.RecordCacheLoad("miss")
		return nil, false
	}

	h, err := PeekHeader(data)
	if err != nil {
		log.Warn("cache discarded", logging.String("path", path), logging.Err(err))
		m.RecordCacheLoad("corrupt")
		return nil, false
	}
	if h.Fingerprint != want {
		log.Info("cache stale", logging.String("path", path))
		m.RecordCacheLoad("stale")
		return nil, false
	}

	snap, _, err := Decode(data)
	if err != nil {
		log.Warn("cache discarded", logging.String("path", path), logging.Err(err))
		m.RecordCacheLoad("corrupt")
		return nil, false
	}

	m.RecordCacheLoad("hit")
	log.Info("cache loaded",
		logging.String("path", path),
		logging.Int("bytes", len(data)))
	return snap, true
}

// ReadFile decodes the frame at path without fingerprint enforcement.
// Inspection tooling uses it; corruption is still an error here.
func ReadFile(path string) (*index.Snapshot, Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Header{}, err
	}
	return Decode(data)
}
