package student

import (
	"sort"
)

// Roster is the in-memory collection of all students, keyed by their
// exact case-sensitive name. It is not safe for concurrent use; the
// accounting engine serializes access behind its own lock.
type Roster struct {
	byName map[string]*Student
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{byName: make(map[string]*Student)}
}

// NewRosterFrom builds a roster from loaded students. Later duplicates of
// a name are dropped; the store's unique constraint makes this a
// defensive load path only.
func NewRosterFrom(students []*Student) *Roster {
	r := NewRoster()
	for _, s := range students {
		if _, exists := r.byName[s.Name]; !exists {
			r.byName[s.Name] = s
		}
	}
	return r
}

// Add inserts a student. Returns ErrDuplicateName if any student, active
// or inactive, already holds the name.
func (r *Roster) Add(s *Student) error {
	if _, exists := r.byName[s.Name]; exists {
		return ErrDuplicateName
	}
	r.byName[s.Name] = s
	return nil
}

// Get returns the student with the given name, or ErrNotFound.
func (r *Roster) Get(name string) (*Student, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Has reports whether a student with the given name exists.
func (r *Roster) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Remove deletes the student record. Returns ErrNotFound if absent.
// The caller is responsible for purging the attendance index first.
func (r *Roster) Remove(name string) (*Student, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.byName, name)
	return s, nil
}

// Len returns the number of students on the roster.
func (r *Roster) Len() int {
	return len(r.byName)
}

// All returns every student sorted by name ascending.
func (r *Roster) All() []*Student {
	out := make([]*Student, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PartitionByActive returns the active and inactive students, each
// sorted by name ascending.
func (r *Roster) PartitionByActive() (active, inactive []*Student) {
	for _, s := range r.byName {
		if s.Active {
			active = append(active, s)
		} else {
			inactive = append(inactive, s)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	sort.Slice(inactive, func(i, j int) bool { return inactive[i].Name < inactive[j].Name })
	return active, inactive
}
