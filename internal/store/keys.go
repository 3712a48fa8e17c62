package store

import "sync"

// keyPool provides reusable byte slices for building database keys,
// which keeps allocations off the hot path of reads.
var keyPool = sync.Pool{
	New: func() any {
		// 256 bytes covers a prefix, an index segment, and a NanoID.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a database key from prefix and suffix using a
// pooled buffer. Callers must call releaseKey when done with it.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// buildIndexKey constructs a secondary index key. Callers must call
// releaseKey when done with it.
func buildIndexKey(prefix, indexName, value string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, "idx:"...)
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return buf
}

// releaseKey returns a key buffer to the pool. The slice must not be
// used afterwards.
func releaseKey(key []byte) {
	// Oversized buffers are not worth keeping around.
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
