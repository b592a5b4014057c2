// Package models holds the plain data types shared by the server packages.
package models

// Assignment is the occupant of a locker. Both fields are always non-empty.
type Assignment struct {
	StudentID   string
	StudentName string
}

// Locker is one row of a locker table. A nil Assignment means the locker is
// free, so a locker is never half assigned.
type Locker struct {
	No         string
	Assignment *Assignment
}

// Free reports whether nobody is assigned to the locker.
func (l Locker) Free() bool {
	return l.Assignment == nil
}

// Clone returns a copy that shares no memory with l.
func (l Locker) Clone() Locker {
	if l.Assignment == nil {
		return Locker{No: l.No}
	}
	a := *l.Assignment
	return Locker{No: l.No, Assignment: &a}
}

// TableStats summarizes a locker table.
type TableStats struct {
	Total    int
	Free     int
	Occupied int
}
