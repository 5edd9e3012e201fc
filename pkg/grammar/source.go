package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// ReadSource memory-maps path and returns its bytes plus a content hash
// suitable for cache keys. An empty file (mmap requires a non-empty region)
// returns empty content without being mapped; if mapping fails, the file is
// read plainly instead.
func ReadSource(path string) (content []byte, hash string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat source: %w", err)
	}
	if info.Size() == 0 {
		return nil, hashBytes(nil), nil
	}

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, "", fmt.Errorf("read source: %w", rerr)
		}
		return data, hashBytes(data), nil
	}
	defer mapped.Unmap()

	content = make([]byte, len(mapped))
	copy(content, mapped)
	return content, hashBytes(content), nil
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
