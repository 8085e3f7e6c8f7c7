// Package dispatchmap provides a string-keyed hash table that can be probed
// with either an owned string or a borrowed []byte view of the same bytes.
//
// Lookups by view never build a temporary string key: hashing and equality
// are defined over the raw bytes, so a request path sliced out of a read
// buffer can be resolved without allocation.
package dispatchmap

const (
	defaultBuckets = 16
	maxLoadNum     = 3
	maxLoadDen     = 4
)

// Key is any textual key representation accepted by the map.
type Key interface {
	~string | ~[]byte
}

// Hash computes the FNV-1a hash of the key bytes. A string and a []byte
// holding the same bytes always hash to the same value.
func Hash[K Key](key K) uint64 {
	const prime = 1099511628211
	hash := uint64(14695981039346656037)

	for i := 0; i < len(key); i++ {
		hash ^= uint64(key[i])
		hash *= prime
	}

	return hash
}

// Equal reports whether a and b hold the same bytes.
func Equal[A Key, B Key](a A, b B) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type entry[V any] struct {
	key   string
	hash  uint64
	value V
}

// Map is a chained hash table from owned string keys to values of type V.
// The zero value is an empty map ready to use. Map is not safe for
// concurrent mutation; concurrent readers are fine once writes have stopped.
type Map[V any] struct {
	buckets [][]*entry[V]
	count   int
}

// New creates a map sized for roughly capacity entries.
func New[V any](capacity int) *Map[V] {
	n := defaultBuckets
	for n*maxLoadNum/maxLoadDen < capacity {
		n <<= 1
	}
	return &Map[V]{buckets: make([][]*entry[V], n)}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return m.count
}

// InsertIfAbsent stores v under key unless the key is already present.
// It returns true iff the value was inserted; an existing value is left untouched.
func (m *Map[V]) InsertIfAbsent(key string, v V) bool {
	return insertIfAbsent(m, key, v)
}

// InsertIfAbsentBytes is InsertIfAbsent for a borrowed key. The key is copied
// only when a new entry is created.
func (m *Map[V]) InsertIfAbsentBytes(key []byte, v V) bool {
	return insertIfAbsent(m, key, v)
}

// Upsert stores v under key, replacing any previous value.
func (m *Map[V]) Upsert(key string, v V) {
	if e := lookup(m, key); e != nil {
		e.value = v
		return
	}
	m.add(key, Hash(key), v)
}

// Find returns a pointer to the value stored under key. The pointer stays
// valid for the lifetime of the entry.
func (m *Map[V]) Find(key string) (*V, bool) {
	if e := lookup(m, key); e != nil {
		return &e.value, true
	}
	return nil, false
}

// FindBytes is Find for a borrowed key view.
func (m *Map[V]) FindBytes(key []byte) (*V, bool) {
	if e := lookup(m, key); e != nil {
		return &e.value, true
	}
	return nil, false
}

// Contains reports whether key is present.
func (m *Map[V]) Contains(key string) bool {
	return lookup(m, key) != nil
}

// ContainsBytes reports whether the key view is present.
func (m *Map[V]) ContainsBytes(key []byte) bool {
	return lookup(m, key) != nil
}

// At returns a copy of the value stored under key, or def when absent.
func (m *Map[V]) At(key string, def V) V {
	if e := lookup(m, key); e != nil {
		return e.value
	}
	return def
}

// AtBytes is At for a borrowed key view.
func (m *Map[V]) AtBytes(key []byte, def V) V {
	if e := lookup(m, key); e != nil {
		return e.value
	}
	return def
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified. fn must not modify the map.
func (m *Map[V]) Range(fn func(key string, v *V) bool) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !fn(e.key, &e.value) {
				return
			}
		}
	}
}

func lookup[V any, K Key](m *Map[V], key K) *entry[V] {
	if len(m.buckets) == 0 {
		return nil
	}
	h := Hash(key)
	for _, e := range m.buckets[m.index(h)] {
		if e.hash == h && Equal(e.key, key) {
			return e
		}
	}
	return nil
}

func insertIfAbsent[V any, K Key](m *Map[V], key K, v V) bool {
	if lookup(m, key) != nil {
		return false
	}
	m.add(string(key), Hash(key), v)
	return true
}

func (m *Map[V]) add(key string, h uint64, v V) {
	if len(m.buckets) == 0 {
		m.buckets = make([][]*entry[V], defaultBuckets)
	}
	if (m.count+1)*maxLoadDen > len(m.buckets)*maxLoadNum {
		m.grow()
	}
	i := m.index(h)
	m.buckets[i] = append(m.buckets[i], &entry[V]{key: key, hash: h, value: v})
	m.count++
}

func (m *Map[V]) grow() {
	buckets := make([][]*entry[V], len(m.buckets)*2)
	mask := uint64(len(buckets) - 1)
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			i := e.hash & mask
			buckets[i] = append(buckets[i], e)
		}
	}
	m.buckets = buckets
}

// index maps a hash to a bucket; the bucket count is always a power of two.
func (m *Map[V]) index(h uint64) int {
	return int(h & uint64(len(m.buckets)-1))
}
