package hashutil

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
)

// DigestLength is the number of hex characters in an md5 digest.
const DigestLength = md5.Size * 2

// MD5Hex returns the lowercase hex md5 digest of value.
func MD5Hex(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Window returns width characters of digest starting at start.
func Window(digest string, start, width int) (string, bool) {
	if start < 0 || width <= 0 || start+width > len(digest) {
		return "", false
	}
	return digest[start : start+width], true
}

// MaxWindowStart is the last start offset that still yields width characters.
func MaxWindowStart(width int) int {
	return DigestLength - width
}

// ContentMapETag returns a digest of a content map and logs on failure.
func ContentMapETag(logger *zap.Logger, contentMap *domain.ContentMap) string {
	return hashWithLogger(logger, "content_map", func() (string, error) {
		if contentMap == nil {
			return "", nil
		}
		ids := contentMap.Identifiers()
		rows := make([]any, 0, len(ids))
		for _, id := range ids {
			entry, _ := contentMap.Get(id)
			rows = append(rows, []any{id, entry.Fields()})
		}
		data, err := json.Marshal(rows)
		if err != nil {
			return "", err
		}
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	})
}

func hashWithLogger(logger *zap.Logger, label string, fn func() (string, error)) string {
	etag, err := fn()
	if err != nil {
		if logger != nil {
			logger.Warn(fmt.Sprintf("%s hash failed", label), zap.Error(err))
		}
		return ""
	}
	return etag
}
