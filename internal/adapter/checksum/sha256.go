package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/custodio-dev/custodio/internal/domain"
)

const chunkSize = 1024 * 1024

// SHA256Hasher streams a file through SHA-256 in fixed-size chunks and
// returns the lowercase hex digest.
type SHA256Hasher struct{}

func NewSHA256() *SHA256Hasher {
	return &SHA256Hasher{}
}

func (h *SHA256Hasher) Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrReadError, path, err)
	}
	defer f.Close()

	digest := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrReadError, path, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}
