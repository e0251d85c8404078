// Package schema describes the tables of the PFS QA database.
//
// Every table is a Table descriptor: ordered typed columns, a primary
// key, a natural key and foreign-key edges. Descriptors are collected
// into a Registry, which validates them once and is read-only
// afterwards. The ingestion engine takes all of its key knowledge from
// the Registry, and DDL for every supported dialect is generated from
// the same descriptors.
package schema

import (
	"slices"
)

// ColumnType is the semantic type of a column.
type ColumnType int

const (
	UnknownType ColumnType = iota
	Integer
	BigInt
	Real
	String
	Timestamp
)

var typeNames = map[ColumnType]string{
	Integer:   "integer",
	BigInt:    "bigint",
	Real:      "real",
	String:    "string",
	Timestamp: "timestamp",
}

// String returns the semantic type name.
func (t ColumnType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText makes column types readable in YAML and JSON exports.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsNumeric is true for integer, bigint and real columns.
func (t ColumnType) IsNumeric() bool {
	return t == Integer || t == BigInt || t == Real
}

// Column describes one table column.
type Column struct {
	Name     string     `yaml:"name"               json:"name"`
	Type     ColumnType `yaml:"type"               json:"type"`
	Nullable bool       `yaml:"nullable"           json:"nullable"`
	// Enum restricts a string column to the listed values.
	Enum    []string `yaml:"enum,omitempty"     json:"enum,omitempty"`
	Comment string   `yaml:"comment,omitempty"  json:"comment,omitempty"`
}

// NotNull returns a copy of the column that rejects NULL.
func (c Column) NotNull() Column {
	c.Nullable = false
	return c
}

// ForeignKey is an edge from a child table to its parent.
type ForeignKey struct {
	Columns    []string `yaml:"columns"     json:"columns"`
	RefTable   string   `yaml:"ref_table"   json:"ref_table"`
	RefColumns []string `yaml:"ref_columns" json:"ref_columns"`
}

// Table describes one relational table.
type Table struct {
	Name    string   `yaml:"name"              json:"name"`
	Doc     string   `yaml:"doc,omitempty"     json:"doc,omitempty"`
	Columns []Column `yaml:"columns"           json:"columns"`

	// PrimaryKey is the storage identity of a row. For tables with
	// a surrogate id it is the Serial column alone.
	PrimaryKey []string `yaml:"primary_key" json:"primary_key"`

	// NaturalKey is the column set that identifies a QA record.
	// It always carries a uniqueness constraint and is the filter of
	// the update fallback.
	NaturalKey []string `yaml:"natural_key" json:"natural_key"`

	// Serial names an auto-assigned integer column, if any.
	Serial string `yaml:"serial,omitempty" json:"serial,omitempty"`

	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty" json:"foreign_keys,omitempty"`
}

// Column returns a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, v := range t.Columns {
		if v.Name == name {
			return v, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in declaration order.
func (t Table) ColumnNames() []string {
	res := make([]string, len(t.Columns))
	for i, v := range t.Columns {
		res[i] = v.Name
	}
	return res
}

// IsNaturalKey reports whether the column belongs to the natural key.
func (t Table) IsNaturalKey(name string) bool {
	return slices.Contains(t.NaturalKey, name)
}

// Updatable reports whether the update fallback may set the column.
// Natural-key columns are the filter and the serial id is owned by the
// database, so neither is ever overwritten.
func (t Table) Updatable(name string) bool {
	return !t.IsNaturalKey(name) && name != t.Serial
}

// Parents returns names of referenced tables, without duplicates.
func (t Table) Parents() []string {
	var res []string
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == t.Name || slices.Contains(res, fk.RefTable) {
			continue
		}
		res = append(res, fk.RefTable)
	}
	return res
}

func (t Table) clone() Table {
	res := t
	res.Columns = make([]Column, len(t.Columns))
	for i, v := range t.Columns {
		v.Enum = slices.Clone(v.Enum)
		res.Columns[i] = v
	}
	res.PrimaryKey = slices.Clone(t.PrimaryKey)
	res.NaturalKey = slices.Clone(t.NaturalKey)
	res.ForeignKeys = make([]ForeignKey, len(t.ForeignKeys))
	for i, v := range t.ForeignKeys {
		v.Columns = slices.Clone(v.Columns)
		v.RefColumns = slices.Clone(v.RefColumns)
		res.ForeignKeys[i] = v
	}
	return res
}
