// Package view holds the index table rule shared by both presentation layers.
package view

// Columns of the index table.
var Columns = []string{"Key", "URL", "Actions"}

// EmptyMessage fills the placeholder row of an empty index.
const EmptyMessage = "No URLMaps!"

// Row is one mapping on the index with its Test, Edit and Delete actions.
type Row struct {
	Key      string
	URL      string
	TestURL  string
	EditPath string
}

// Placeholder replaces the data rows of an empty index.
type Placeholder struct {
	Message string
	ColSpan int
}

// Table is the index view model. Exactly one of Rows and Placeholder is set.
type Table struct {
	Columns     []string
	Rows        []Row
	Placeholder *Placeholder
}

// NewTable builds the index table for rows.
func NewTable(rows []Row) *Table {
	t := &Table{Columns: Columns}
	if len(rows) == 0 {
		t.Placeholder = &Placeholder{Message: EmptyMessage, ColSpan: len(Columns)}
		return t
	}
	t.Rows = rows
	return t
}
