package sheets

import (
	"fmt"
	"strings"

	"github.com/roach88/mshdb/internal/subject"
)

// SheetReport is the roster comparison of one sheet.
type SheetReport struct {
	Name string

	// Missing are keys of the roster union that the sheet lacks.
	Missing subject.KeyList

	// NotInMain are keys of the sheet that the main sheet lacks.
	NotInMain subject.KeyList
}

// Consistent reports whether the sheet holds the whole roster.
func (r SheetReport) Consistent() bool { return len(r.Missing) == 0 }

// Report is the result of Consistency.
type Report struct {
	Main     string
	Subjects int
	Sheets   []SheetReport
}

// Consistent reports whether every sheet holds the whole roster.
func (r Report) Consistent() bool {
	for _, s := range r.Sheets {
		if !s.Consistent() {
			return false
		}
	}
	return true
}

// Inconsistent returns the names of sheets that lack some subject.
func (r Report) Inconsistent() []string {
	var out []string
	for _, s := range r.Sheets {
		if !s.Consistent() {
			out = append(out, s.Name)
		}
	}
	return out
}

// String renders a one-line-per-sheet summary.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d subjects, main sheet %q\n", r.Subjects, r.Main)
	for _, s := range r.Sheets {
		if s.Consistent() && len(s.NotInMain) == 0 {
			fmt.Fprintf(&b, "  %s: ok\n", s.Name)
			continue
		}
		fmt.Fprintf(&b, "  %s:", s.Name)
		if len(s.Missing) > 0 {
			fmt.Fprintf(&b, " missing [%s]", strings.Join(s.Missing.IDs(), ", "))
		}
		if len(s.NotInMain) > 0 {
			fmt.Fprintf(&b, " not in main [%s]", strings.Join(s.NotInMain.IDs(), ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Consistency compares every sheet with the roster union and the main
// sheet.
func (s *SheetSet) Consistency() Report {
	all := s.AllSubjects()
	var mainKeys subject.KeyList
	if m := s.Main(); m != nil {
		mainKeys = m.Keys()
	}

	rep := Report{Main: s.main, Subjects: len(all), Sheets: make([]SheetReport, 0, len(s.names))}
	for _, name := range s.names {
		keys := s.tables[name].Keys()
		rep.Sheets = append(rep.Sheets, SheetReport{
			Name:      name,
			Missing:   all.Difference(keys),
			NotInMain: keys.Difference(mainKeys),
		})
	}
	return rep
}
