package table

import "github.com/roach88/mshdb/internal/cell"

// Canonical returns t as plain data for canonical JSON: name, group
// column, columns with kinds, and rows in table order.
func (t *Table) Canonical() map[string]any {
	cols := make([]any, len(t.columns))
	for i, c := range t.columns {
		cols[i] = map[string]any{"name": c.Name, "kind": c.Kind.String()}
	}
	rows := make([]any, len(t.rows))
	for i, r := range t.rows {
		cells := make(map[string]any, len(t.columns))
		for _, c := range t.columns {
			cells[c.Name] = cell.OrEmpty(r.cells[c.Name])
		}
		rows[i] = map[string]any{
			"label":   r.key.Label,
			"session": r.key.Session,
			"cells":   cells,
		}
	}
	return map[string]any{
		"name":    t.name,
		"group":   t.group,
		"columns": cols,
		"rows":    rows,
	}
}

// Fingerprint returns a content hash of t. Row order, column order and
// every cell contribute; cached positions do not.
func (t *Table) Fingerprint() (string, error) {
	return cell.Fingerprint(cell.DomainTable, t.Canonical())
}
