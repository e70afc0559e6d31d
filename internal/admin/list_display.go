// Package admin holds the administrative list configuration for pages:
// which columns are shown, in which order, and how each one renders.
package admin

import (
	"errors"
	"slices"
)

// ErrSealed is returned when the admin configuration is changed after Seal.
var ErrSealed = errors.New("admin configuration is sealed")

// ListDisplay is the ordered list of column names shown in the admin list.
type ListDisplay struct {
	names  []string
	sealed bool
}

// NewListDisplay returns a list display with the given columns in order.
func NewListDisplay(names ...string) *ListDisplay {
	return &ListDisplay{names: slices.Clone(names)}
}

// Names returns a copy of the column names in display order.
func (l *ListDisplay) Names() []string {
	return slices.Clone(l.names)
}

// Index returns the position of name, or -1 if it is not displayed.
func (l *ListDisplay) Index(name string) int {
	return slices.Index(l.names, name)
}

// Append adds name at the end of the list.
func (l *ListDisplay) Append(name string) error {
	if l.sealed {
		return ErrSealed
	}
	l.names = append(l.names, name)
	return nil
}

// InsertAfter places name immediately after key. When key is not displayed
// the name is appended if fallbackToEnd is set and dropped otherwise.
// It reports whether name was inserted.
func (l *ListDisplay) InsertAfter(key, name string, fallbackToEnd bool) (bool, error) {
	if l.sealed {
		return false, ErrSealed
	}
	pos := l.Index(key)
	if pos < 0 {
		if !fallbackToEnd {
			return false, nil
		}
		return true, l.Append(name)
	}
	l.names = slices.Insert(l.names, pos+1, name)
	return true, nil
}

// Seal makes the list read-only.
func (l *ListDisplay) Seal() {
	l.sealed = true
}
