package lockers

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
)

// minNoWidth is the zero padding of locker numbers ("001").
const minNoWidth = 3

type Table struct {
	rows  []models.Locker
	index map[string]int
}

// NewTable builds a table of capacity free lockers numbered 1..capacity and
// applies seed on top. Seed entries pointing outside the table or lacking
// either field are skipped.
func NewTable(capacity int, seed []SeedEntry) *Table {
	if capacity < 0 {
		capacity = 0
	}

	width := len(strconv.Itoa(capacity))
	if width < minNoWidth {
		width = minNoWidth
	}

	t := &Table{
		rows:  make([]models.Locker, capacity),
		index: make(map[string]int, capacity),
	}
	for i := range t.rows {
		no := FormatNo(i+1, width)
		t.rows[i] = models.Locker{No: no}
		t.index[no] = i
	}

	for _, s := range seed {
		if s.Index < 0 || s.Index >= capacity || s.StudentID == "" || s.StudentName == "" {
			continue
		}
		t.rows[s.Index].Assignment = &models.Assignment{StudentID: s.StudentID, StudentName: s.StudentName}
	}

	return t
}

// FormatNo renders n zero padded to width digits.
func FormatNo(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// Len returns the fixed number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Get returns a copy of the locker numbered no.
func (t *Table) Get(no string) (models.Locker, error) {
	i, ok := t.index[no]
	if !ok {
		return models.Locker{}, fmt.Errorf("locker %q: %w", no, common.ErrorNotFound)
	}
	return t.rows[i].Clone(), nil
}

// All returns every row in table order.
func (t *Table) All() []models.Locker {
	return t.filter(func(models.Locker) bool { return true })
}

// Free returns the free lockers in table order.
func (t *Table) Free() []models.Locker {
	return t.filter(models.Locker.Free)
}

// Occupied returns the assigned lockers in table order.
func (t *Table) Occupied() []models.Locker {
	return t.filter(func(l models.Locker) bool { return !l.Free() })
}

func (t *Table) Stats() models.TableStats {
	st := models.TableStats{Total: len(t.rows)}
	for _, l := range t.rows {
		if l.Free() {
			st.Free++
		}
	}
	st.Occupied = st.Total - st.Free
	return st
}

// Register assigns a student to the free locker no. Both studentID and
// studentName must be non-empty. The locker must still be free when the
// assignment is written, so a stale form cannot overwrite an occupant.
func (t *Table) Register(no, studentID, studentName string) error {
	if studentID == "" || studentName == "" {
		return fmt.Errorf("student id and name are required: %w", common.ErrorValidation)
	}

	i, ok := t.index[no]
	if !ok {
		return fmt.Errorf("locker %q: %w", no, common.ErrorNotFound)
	}
	if !t.rows[i].Free() {
		return fmt.Errorf("locker %s: %w", no, common.ErrLockerOccupied)
	}

	t.rows[i].Assignment = &models.Assignment{StudentID: studentID, StudentName: studentName}
	return nil
}

// Release clears the occupant of locker no. Releasing a free locker changes
// nothing and reports common.ErrLockerFree.
func (t *Table) Release(no string) error {
	i, ok := t.index[no]
	if !ok {
		return fmt.Errorf("locker %q: %w", no, common.ErrorNotFound)
	}
	if t.rows[i].Free() {
		return fmt.Errorf("locker %s: %w", no, common.ErrLockerFree)
	}

	t.rows[i].Assignment = nil
	return nil
}

func (t *Table) filter(keep func(models.Locker) bool) []models.Locker {
	out := make([]models.Locker, 0, len(t.rows))
	for _, l := range t.rows {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}
