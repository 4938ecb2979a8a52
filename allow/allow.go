// Package allow implements the allow-list of participants permitted to use
// privileged commands.
package allow

// List is a fixed set of participant ids.
// The zero value allows no one.
type List struct {
	ids map[string]struct{}
}

// New creates a list allowing exactly the given ids.
// Ids are compared verbatim, so case and formatting must match the ids the
// server reports.
func New(ids []string) *List {
	l := &List{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}
	return l
}

// Allowed returns whether id is in the list.
func (l *List) Allowed(id string) bool {
	if l == nil {
		return false
	}
	_, ok := l.ids[id]
	return ok
}

// Len returns the number of distinct ids in the list.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ids)
}
