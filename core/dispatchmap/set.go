package dispatchmap

// Set is a set of strings that can be probed with borrowed views.
type Set struct {
	m Map[struct{}]
}

// NewSet creates a set sized for roughly capacity members.
func NewSet(capacity int) *Set {
	return &Set{m: *New[struct{}](capacity)}
}

// Insert adds s and reports whether it was not already present.
func (s *Set) Insert(key string) bool {
	return s.m.InsertIfAbsent(key, struct{}{})
}

// InsertBytes adds a copy of key and reports whether it was not already present.
func (s *Set) InsertBytes(key []byte) bool {
	return s.m.InsertIfAbsentBytes(key, struct{}{})
}

func (s *Set) Contains(key string) bool {
	return s.m.Contains(key)
}

func (s *Set) ContainsBytes(key []byte) bool {
	return s.m.ContainsBytes(key)
}

func (s *Set) Len() int {
	return s.m.Len()
}
