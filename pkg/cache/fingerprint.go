package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Shopify/i18n/pkg/pools"
)

// Fingerprint digests the ordered list of source file paths the
// framework will load. Two frames with equal fingerprints were built
// from the same sources.
//
// With digest=false (the default, fast mode) the digest covers each
// "<path>:<mtime_seconds>" line joined by newlines. With digest=true it
// covers path bytes, a NUL, the file contents, and a NUL per file,
// which survives touch-based redeploys.
func Fingerprint(paths []string, digest bool) (string, error) {
	if digest {
		return contentFingerprint(paths)
	}
	return mtimeFingerprint(paths)
}

func mtimeFingerprint(paths []string) (string, error) {
	buf := pools.GetBytes(len(paths) * 64)
	defer pools.PutBytes(buf)

	for i, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, path...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, info.ModTime().Unix(), 10)
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

func contentFingerprint(paths []string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		h.Write([]byte(path))
		h.Write([]byte{0})
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
