package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash"
)

// ContentHash returns the hex SHA-256 of a canonical document or an encoded
// layout. Keyers take it in place of the content itself.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// keyDigest accumulates the parts of a cache key. Every part is written with
// its length first, so ("ab", "c") and ("a", "bc") never share a key.
type keyDigest struct {
	h hash.Hash
}

func newKeyDigest(kind string) *keyDigest {
	d := &keyDigest{h: sha256.New()}
	d.part([]byte(kind))
	return d
}

func (d *keyDigest) part(b []byte) {
	var n [binary.MaxVarintLen64]byte
	d.h.Write(n[:binary.PutUvarint(n[:], uint64(len(b)))])
	d.h.Write(b)
}

// opts adds an options struct by its JSON form. Field order is fixed by the
// struct, so equal options always encode the same way.
func (d *keyDigest) opts(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		// Option structs hold only plain values.
		panic("cache: encode key options: " + err.Error())
	}
	d.part(b)
}

func (d *keyDigest) key(kind string) string {
	return kind + ":" + hex.EncodeToString(d.h.Sum(nil))
}

// contentKey is "<kind>:<sha256 of kind, content hash and options>".
func contentKey(kind, content string, opts any) string {
	d := newKeyDigest(kind)
	d.part([]byte(content))
	d.opts(opts)
	return d.key(kind)
}

// shard splits a key into the directory and file name FileCache stores it
// under, spreading entries over 256 directories.
func shard(key string) (dir, name string) {
	h := ContentHash([]byte(key))
	return h[:2], h[2:]
}
