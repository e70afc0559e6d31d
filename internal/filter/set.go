// Package filter implements the active-filter set: the accumulated
// predicate a page manager applies when listing pages that are currently
// visible to the public.
package filter

import (
	sq "github.com/Masterminds/squirrel"
)

// Clause builds one WHERE fragment of the active filter.
// now is the current instant already encoded for the backing store, so a
// clause compares columns against it directly. Clauses are evaluated each
// time a query is built, never at registration.
type Clause func(now any) sq.Sqlizer

// Set is an ordered list of clauses combined with logical AND.
// Clauses are added during startup wiring; Add must not race with Where.
type Set struct {
	clauses []Clause
}

// Add appends a clause to the set.
func (s *Set) Add(c Clause) {
	s.clauses = append(s.clauses, c)
}

// Len returns the number of clauses in the set.
func (s *Set) Len() int {
	return len(s.clauses)
}

// Where resolves every clause against now and joins them with AND.
// An empty set matches everything.
func (s *Set) Where(now any) sq.Sqlizer {
	and := make(sq.And, 0, len(s.clauses))
	for _, c := range s.clauses {
		and = append(and, c(now))
	}
	return and
}
