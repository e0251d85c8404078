package schema

import (
	"reflect"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Registry is a validated, read-only set of table descriptors.
type Registry struct {
	tables map[string]Table
	order  []string
	create []string
}

// New validates table descriptors and builds a Registry.
//
// Identical repeated definitions of a table are collapsed. New fails when
// two different definitions share a name, when a key or foreign-key column
// is not declared, when a key column is nullable, or when foreign keys
// form a cycle.
func New(tables ...Table) (*Registry, error) {
	res := &Registry{tables: make(map[string]Table, len(tables))}

	for _, v := range tables {
		t := v.clone()
		if prev, ok := res.tables[t.Name]; ok {
			if reflect.DeepEqual(prev, t) {
				continue
			}
			return nil, DuplicateTableError(t.Name)
		}
		if err := validateTable(t); err != nil {
			return nil, err
		}
		res.tables[t.Name] = t
		res.order = append(res.order, t.Name)
	}

	for _, name := range res.order {
		if err := res.validateForeignKeys(res.tables[name]); err != nil {
			return nil, err
		}
	}

	create, err := res.sortByDependency()
	if err != nil {
		return nil, err
	}
	res.create = create
	return res, nil
}

// Table returns a copy of a table descriptor.
func (r *Registry) Table(name string) (Table, bool) {
	t, ok := r.tables[name]
	if !ok {
		return Table{}, false
	}
	return t.clone(), true
}

// Names returns table names in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Tables returns copies of all descriptors in declaration order.
func (r *Registry) Tables() []Table {
	res := make([]Table, len(r.order))
	for i, name := range r.order {
		res[i] = r.tables[name].clone()
	}
	return res
}

// Len returns the number of tables.
func (r *Registry) Len() int {
	return len(r.order)
}

// CreateOrder returns table names with every parent before its children.
func (r *Registry) CreateOrder() []string {
	return slices.Clone(r.create)
}

// DropOrder returns table names with every child before its parents.
func (r *Registry) DropOrder() []string {
	res := slices.Clone(r.create)
	slices.Reverse(res)
	return res
}

// YAML renders the registry as a YAML document in declaration order.
func (r *Registry) YAML() ([]byte, error) {
	doc := struct {
		Tables []Table `yaml:"tables"`
	}{Tables: r.Tables()}
	return yaml.Marshal(doc)
}

func validateTable(t Table) error {
	if !identRe.MatchString(t.Name) {
		return BadIdentifierError(t.Name, t.Name)
	}
	if len(t.Columns) == 0 {
		return DefinitionError(t.Name, "table has no columns")
	}

	seen := make(map[string]Column, len(t.Columns))
	for _, c := range t.Columns {
		if !identRe.MatchString(c.Name) {
			return BadIdentifierError(t.Name, c.Name)
		}
		if _, ok := seen[c.Name]; ok {
			return DefinitionError(t.Name, "column '"+c.Name+"' is declared twice")
		}
		if _, ok := typeNames[c.Type]; !ok {
			return DefinitionError(t.Name, "column '"+c.Name+"' has no type")
		}
		if len(c.Enum) > 0 && c.Type != String {
			return DefinitionError(t.Name, "enum on non-string column '"+c.Name+"'")
		}
		seen[c.Name] = c
	}

	if len(t.PrimaryKey) == 0 {
		return DefinitionError(t.Name, "primary key is empty")
	}
	if len(t.NaturalKey) == 0 {
		return DefinitionError(t.Name, "natural key is empty")
	}
	keys := append(slices.Clone(t.PrimaryKey), t.NaturalKey...)
	for _, k := range keys {
		c, ok := seen[k]
		if !ok {
			return MissingColumnError(t.Name, k, "key")
		}
		if c.Nullable {
			return DefinitionError(t.Name, "key column '"+k+"' is nullable")
		}
	}

	if t.Serial != "" {
		c, ok := seen[t.Serial]
		if !ok {
			return MissingColumnError(t.Name, t.Serial, "serial")
		}
		if c.Type != Integer && c.Type != BigInt {
			return DefinitionError(t.Name, "serial column '"+t.Serial+"' is not an integer")
		}
		if !slices.Equal(t.PrimaryKey, []string{t.Serial}) {
			return DefinitionError(t.Name, "serial column must be the whole primary key")
		}
		if slices.Contains(t.NaturalKey, t.Serial) {
			return DefinitionError(t.Name, "serial column cannot be a natural key")
		}
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
			return DefinitionError(t.Name, "foreign key to '"+fk.RefTable+"' is malformed")
		}
		for _, c := range fk.Columns {
			if _, ok := seen[c]; !ok {
				return MissingColumnError(t.Name, c, "foreign key")
			}
		}
	}
	return nil
}

func (r *Registry) validateForeignKeys(t Table) error {
	for _, fk := range t.ForeignKeys {
		parent, ok := r.tables[fk.RefTable]
		if !ok {
			return MissingParentError(t.Name, fk.RefTable)
		}
		for i, rc := range fk.RefColumns {
			pc, ok := parent.Column(rc)
			if !ok {
				return MissingColumnError(parent.Name, rc, "referenced")
			}
			cc, _ := t.Column(fk.Columns[i])
			if !compatible(cc.Type, pc.Type) {
				return DefinitionError(t.Name,
					"column '"+cc.Name+"' type differs from "+parent.Name+"."+pc.Name)
			}
		}
	}
	return nil
}

func compatible(a, b ColumnType) bool {
	if a == b {
		return true
	}
	ints := []ColumnType{Integer, BigInt}
	return slices.Contains(ints, a) && slices.Contains(ints, b)
}

// sortByDependency is a stable topological sort: among tables whose
// parents are already placed, the earliest declared goes first.
func (r *Registry) sortByDependency() ([]string, error) {
	placed := make(map[string]bool, len(r.order))
	res := make([]string, 0, len(r.order))
	for len(res) < len(r.order) {
		progress := false
		for _, name := range r.order {
			if placed[name] {
				continue
			}
			ready := true
			for _, p := range r.tables[name].Parents() {
				if !placed[p] {
					ready = false
					break
				}
			}
			if ready {
				placed[name] = true
				res = append(res, name)
				progress = true
				break
			}
		}
		if !progress {
			var rest []string
			for _, name := range r.order {
				if !placed[name] {
					rest = append(rest, name)
				}
			}
			return nil, CycleError(rest)
		}
	}
	return res, nil
}
