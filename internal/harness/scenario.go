package harness

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mshdb/internal/config"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/testutil"
)

// Scenario defines one harness run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is an inline dataset schema.
	Schema *config.DatasetConfig `yaml:"schema,omitempty"`

	// SchemaFile is a CUE dataset file, relative to the scenario file.
	SchemaFile string `yaml:"schema_file,omitempty"`

	// Data holds the initial records of each sheet. Schema sheets it
	// omits start empty.
	Data map[string][]testutil.Record `yaml:"data"`

	// Steps are applied in order, each to the result of the previous one.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final database and projection.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one database operation.
type Step struct {
	Op string `yaml:"op"`

	// add_new_subjects
	Incoming     map[string][]testutil.Record `yaml:"incoming,omitempty"`
	AllowPartial bool                         `yaml:"allow_partial,omitempty"`

	// remove_subjects and select
	Subjects []string `yaml:"subjects,omitempty"`

	// rename_subjects
	Rename map[string]string `yaml:"rename,omitempty"`

	// add_columns
	Sheet     string            `yaml:"sheet,omitempty"`
	Frame     []testutil.Record `yaml:"frame,omitempty"`
	Overwrite bool              `yaml:"overwrite,omitempty"`

	// select
	Where   []WhereClause  `yaml:"where,omitempty"`
	Columns []ColumnClause `yaml:"columns,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// WhereClause filters subjects by predicates on one sheet.
type WhereClause struct {
	Sheet      string   `yaml:"sheet"`
	Predicates []string `yaml:"predicates"`
}

// ColumnClause requests columns of one sheet.
type ColumnClause struct {
	Sheet   string   `yaml:"sheet"`
	Columns []string `yaml:"columns"`
}

// Assertion validates the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// subjects
	Subjects []string `yaml:"subjects,omitempty"`

	// consistent
	Consistent *bool `yaml:"consistent,omitempty"`

	// row_count and cell
	Sheet string `yaml:"sheet,omitempty"`
	Count *int   `yaml:"count,omitempty"`

	// cell
	Subject string `yaml:"subject,omitempty"`
	Column  string `yaml:"column,omitempty"`
	Value   any    `yaml:"value,omitempty"`

	// projection
	Columns []string `yaml:"columns,omitempty"`
	Rows    [][]any  `yaml:"rows,omitempty"`
}

// Operation names.
const (
	OpAddNewSubjects = "add_new_subjects"
	OpRemoveSubjects = "remove_subjects"
	OpRenameSubjects = "rename_subjects"
	OpAddColumns     = "add_columns"
	OpSelect         = "select"
	OpSnapshot       = "snapshot"
)

// Assertion type constants.
const (
	AssertSubjects   = "subjects"
	AssertConsistent = "consistent"
	AssertRowCount   = "row_count"
	AssertCell       = "cell"
	AssertProjection = "projection"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly. A relative schema_file is resolved
// against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	if scenario.SchemaFile != "" && !filepath.IsAbs(scenario.SchemaFile) {
		scenario.SchemaFile = filepath.Join(filepath.Dir(path), scenario.SchemaFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file
// name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario directory")
	}

	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", filepath.Base(p))
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if (s.Schema == nil) == (s.SchemaFile == "") {
		return errors.New("exactly one of schema and schema_file is required")
	}
	if s.SchemaFile != "" {
		if _, err := os.Stat(s.SchemaFile); os.IsNotExist(err) {
			return errors.Newf("schema file not found: %s", s.SchemaFile)
		}
	}
	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpAddNewSubjects:
		if len(st.Incoming) == 0 {
			return errors.Newf("steps[%d]: incoming is required for %s", index, st.Op)
		}
	case OpRemoveSubjects:
		if len(st.Subjects) == 0 {
			return errors.Newf("steps[%d]: subjects is required for %s", index, st.Op)
		}
	case OpRenameSubjects:
		if len(st.Rename) == 0 {
			return errors.Newf("steps[%d]: rename is required for %s", index, st.Op)
		}
	case OpAddColumns:
		if st.Sheet == "" || len(st.Frame) == 0 {
			return errors.Newf("steps[%d]: sheet and frame are required for %s", index, st.Op)
		}
	case OpSelect:
		if len(st.Columns) == 0 {
			return errors.Newf("steps[%d]: columns is required for %s", index, st.Op)
		}
	case OpSnapshot:
	case "":
		return errors.Newf("steps[%d]: op is required", index)
	default:
		return errors.Newf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertSubjects:
		if a.Subjects == nil {
			return errors.Newf("assertions[%d]: subjects is required for %s", index, a.Type)
		}
	case AssertConsistent:
		if a.Consistent == nil {
			return errors.Newf("assertions[%d]: consistent is required for %s", index, a.Type)
		}
	case AssertRowCount:
		if a.Sheet == "" || a.Count == nil {
			return errors.Newf("assertions[%d]: sheet and count are required for %s", index, a.Type)
		}
	case AssertCell:
		if a.Sheet == "" || a.Subject == "" || a.Column == "" {
			return errors.Newf("assertions[%d]: sheet, subject and column are required for %s", index, a.Type)
		}
	case AssertProjection:
		if len(a.Columns) == 0 {
			return errors.Newf("assertions[%d]: columns is required for %s", index, a.Type)
		}
	case "":
		return errors.Newf("assertions[%d]: type is required", index)
	default:
		return errors.Newf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
