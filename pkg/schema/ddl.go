package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Subaru-PFS/qadb/pkg/db"
)

// CreateDDL returns the CREATE TABLE statement for the dialect.
func (t Table) CreateDDL(d db.Dialect) string {
	var lines []string

	// SQLite only autoincrements an inline INTEGER PRIMARY KEY.
	inlineSerial := d == db.SQLite && t.Serial != ""

	for _, c := range t.Columns {
		lines = append(lines, "    "+t.columnDDL(c, d, inlineSerial))
	}

	if !inlineSerial {
		lines = append(lines,
			fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}
	if !slices.Equal(t.NaturalKey, t.PrimaryKey) {
		lines = append(lines,
			fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)",
				t.uniqueName(), strings.Join(t.NaturalKey, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines,
			fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
				strings.Join(fk.Columns, ", "),
				fk.RefTable,
				strings.Join(fk.RefColumns, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);",
		t.Name,
		strings.Join(lines, ",\n"))
}

// IndexDDL returns CREATE INDEX statements for foreign-key columns
// that do not lead the primary or natural key.
// Returns empty slice if no indexes needed.
func (t Table) IndexDDL() []string {
	res := []string{}
	for _, fk := range t.ForeignKeys {
		if hasPrefix(t.PrimaryKey, fk.Columns) ||
			hasPrefix(t.NaturalKey, fk.Columns) {
			continue
		}
		name := fmt.Sprintf("idx_%s_%s", t.Name, strings.Join(fk.Columns, "_"))
		res = append(res, fmt.Sprintf("CREATE INDEX %s ON %s(%s);",
			name, t.Name, strings.Join(fk.Columns, ", ")))
	}
	return res
}

// CommentDDL returns COMMENT statements for the table and its columns.
// SQLite has no comments, so the result is empty for it.
func (t Table) CommentDDL(d db.Dialect) []string {
	res := []string{}
	if d != db.Postgres {
		return res
	}
	if t.Doc != "" {
		res = append(res, fmt.Sprintf("COMMENT ON TABLE %s IS %s;",
			t.Name, sqlString(t.Doc)))
	}
	for _, c := range t.Columns {
		if c.Comment == "" {
			continue
		}
		res = append(res, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;",
			t.Name, c.Name, sqlString(c.Comment)))
	}
	return res
}

// DropDDL returns the DROP TABLE statement for the dialect.
func (t Table) DropDDL(d db.Dialect) string {
	if d == db.Postgres {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", t.Name)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", t.Name)
}

// DDL returns all statements needed to create the registry tables,
// parents first.
func (r *Registry) DDL(d db.Dialect) []string {
	var res []string
	for _, name := range r.create {
		t := r.tables[name]
		res = append(res, t.CreateDDL(d))
		res = append(res, t.IndexDDL()...)
		res = append(res, t.CommentDDL(d)...)
	}
	return res
}

func (t Table) columnDDL(c Column, d db.Dialect, inlineSerial bool) string {
	if c.Name == t.Serial {
		if inlineSerial {
			return c.Name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		if c.Type == BigInt {
			return c.Name + " BIGSERIAL"
		}
		return c.Name + " SERIAL"
	}

	res := c.Name + " " + sqlType(c.Type, d)
	if !c.Nullable {
		res += " NOT NULL"
	}
	if len(c.Enum) > 0 {
		vals := make([]string, len(c.Enum))
		for i, v := range c.Enum {
			vals[i] = sqlString(v)
		}
		res += fmt.Sprintf(" CHECK (%s IN (%s))", c.Name, strings.Join(vals, ", "))
	}
	return res
}

func sqlType(t ColumnType, d db.Dialect) string {
	switch t {
	case Integer:
		return "INTEGER"
	case BigInt:
		if d == db.SQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case Real:
		return "REAL"
	case String:
		if d == db.SQLite {
			return "TEXT"
		}
		return "VARCHAR"
	case Timestamp:
		if d == db.SQLite {
			return "TIMESTAMP"
		}
		return "TIMESTAMP WITHOUT TIME ZONE"
	}
	return "TEXT"
}

func (t Table) uniqueName() string {
	return fmt.Sprintf("uq_%s_natural_key", t.Name)
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func hasPrefix(key, cols []string) bool {
	return len(cols) <= len(key) && slices.Equal(key[:len(cols)], cols)
}
