// Package data loads trait tables and binds them to a phylogenetic
// tree: the common identifier set is kept, the tree is pruned to it
// and the design matrix is laid out in tip order.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("data")

var (
	// ErrEmptyTable is returned for a table without data rows.
	ErrEmptyTable = errors.New("empty table")
	// ErrUnknownColumn is returned when a model specification
	// names a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrResponseKind is returned when the response column is not
	// numeric.
	ErrResponseKind = errors.New("response must be numeric")
)

// ColumnKind is the type of a table column.
type ColumnKind int

const (
	// Numeric columns hold float64 values.
	Numeric ColumnKind = iota
	// Categorical columns hold string labels.
	Categorical
)

// String returns the kind name.
func (k ColumnKind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column is a single typed column of a table.
type Column struct {
	Name string
	Kind ColumnKind
	// Values holds the numeric values; missing values are NaN.
	Values []float64
	// Labels holds the categorical labels; missing values are
	// empty strings.
	Labels []string
}

// missing tests whether the value in a row is missing.
func (c *Column) missing(row int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Values[row])
	}
	return c.Labels[row] == ""
}

// Table is a trait table: rows keyed by tip identifier, typed
// columns.
type Table struct {
	ids     []string
	columns []*Column
	byName  map[string]*Column
	rowByID map[string]int
}

// NIDs returns the number of rows.
func (t *Table) NIDs() int {
	return len(t.ids)
}

// IDs returns the row identifiers in file order.
func (t *Table) IDs() []string {
	return t.ids
}

// Column returns a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Row returns the row index of an identifier.
func (t *Table) Row(id string) (int, bool) {
	i, ok := t.rowByID[id]
	return i, ok
}

// isMissing tests whether a raw field denotes a missing value.
func isMissing(field string) bool {
	return field == "" || field == "NA"
}

// ReadTable reads a delimited table: a header row, the first column
// holding tip identifiers. Column kinds are inferred: a column where
// every non-missing field parses as a float is numeric, anything
// else is categorical. Missing values are "NA" or empty fields.
func ReadTable(rd io.Reader, comma rune) (*Table, error) {
	r := csv.NewReader(rd)
	r.Comma = comma
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrEmptyTable
	}

	header := records[0]
	rows := records[1:]

	t := &Table{
		ids:     make([]string, 0, len(rows)),
		byName:  make(map[string]*Column, len(header)-1),
		rowByID: make(map[string]int, len(rows)),
	}

	for _, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row for %q has %d fields, header has %d",
				row[0], len(row), len(header))
		}
		if _, ok := t.rowByID[row[0]]; ok {
			return nil, fmt.Errorf("duplicate identifier %q", row[0])
		}
		t.rowByID[row[0]] = len(t.ids)
		t.ids = append(t.ids, row[0])
	}

	for j := 1; j < len(header); j++ {
		numeric := true
		for _, row := range rows {
			if isMissing(row[j]) {
				continue
			}
			if _, err := strconv.ParseFloat(row[j], 64); err != nil {
				numeric = false
				break
			}
		}

		col := &Column{Name: header[j]}
		if numeric {
			col.Kind = Numeric
			col.Values = make([]float64, len(rows))
			for i, row := range rows {
				if isMissing(row[j]) {
					col.Values[i] = math.NaN()
					continue
				}
				col.Values[i], _ = strconv.ParseFloat(row[j], 64)
			}
		} else {
			col.Kind = Categorical
			col.Labels = make([]string, len(rows))
			for i, row := range rows {
				if !isMissing(row[j]) {
					col.Labels[i] = row[j]
				}
			}
		}
		t.columns = append(t.columns, col)
		t.byName[col.Name] = col
		log.Debugf("column %s: %v", col.Name, col.Kind)
	}

	log.Infof("Read table of %d rows, %d columns", len(t.ids), len(t.columns))
	return t, nil
}

// ReadTableFile reads a table from a file path.
func ReadTableFile(filename string, comma rune) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f, comma)
}
