package relq

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vmihailenco/msgpack/v5"
)

// CacheKey identifies a rendered statement together with its bound values,
// for result caches sitting in front of a driver. See sql.KeyOf.
type CacheKey struct {
	Backend string
	Query   string
	Args    []any
}

// String returns the string representation of the cache key. Two keys are
// equal when backend, statement text and every bound value are equal. An empty
// string means the statement must not be cached.
func (k CacheKey) String() string {
	h := sha256.New()
	h.Write([]byte(k.Backend))
	h.Write([]byte{0})
	h.Write([]byte(k.Query))
	h.Write([]byte{0})
	if len(k.Args) > 0 {
		b, err := msgpack.Marshal(k.Args)
		if err != nil {
			return ""
		}
		h.Write(b)
	}
	return k.Backend + ":" + hex.EncodeToString(h.Sum(nil))
}
