package portfolio

// Table is the ordered row sequence. It always keeps at least one row and,
// outside of a mutation, exactly one trailing blank row as the entry point.
// The Table itself is not safe for concurrent use; the Engine serializes all
// access behind its mutex.
type Table struct {
	rows []*Row
}

// NewTable creates a table seeded with one blank row.
func NewTable() *Table {
	return &Table{rows: []*Row{newRow()}}
}

// Rows returns the row sequence in order. The slice is a copy, the row
// pointers are live.
func (t *Table) Rows() []*Row {
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Get returns the row with the given id, nil when it no longer exists.
func (t *Table) Get(id string) *Row {
	for _, r := range t.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Last returns the final row of the sequence.
func (t *Table) Last() *Row {
	return t.rows[len(t.rows)-1]
}

// AppendBlank adds a fresh entry row at the end and returns it.
func (t *Table) AppendBlank() *Row {
	r := newRow()
	t.rows = append(t.rows, r)
	return r
}

// Delete removes the row with the given id. When the last row goes, a blank
// one is inserted immediately; the table is never empty.
func (t *Table) Delete(id string) bool {
	for i, r := range t.rows {
		if r.ID == id {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			if len(t.rows) == 0 {
				t.rows = []*Row{newRow()}
			}
			return true
		}
	}
	return false
}
