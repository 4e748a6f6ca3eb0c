package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Resolver looks up interned names by string id.
type Resolver interface {
	Resolve(uid uint32) (string, error)
}

// Compile resolves every name of d and produces its table definition,
// including the CREATE TABLE and INSERT text.
func Compile(d Descriptor, r Resolver) (types.Table, error) {
	if len(d.Fields) == 0 || len(d.Fields) > MaxFields {
		return types.Table{}, fmt.Errorf("compile: %d fields: %w", len(d.Fields), types.ErrBadFieldCount)
	}

	name, err := resolveIdent(r, d.Name)
	if err != nil {
		return types.Table{}, fmt.Errorf("compile table name: %w", err)
	}

	cols := make([]types.Column, len(d.Fields))
	for i, f := range d.Fields {
		colName, err := resolveIdent(r, f.Name)
		if err != nil {
			return types.Table{}, fmt.Errorf("compile field %d: %w", i, err)
		}
		cols[i] = types.Column{Name: colName, SQLType: f.Type.SQLType()}
	}

	return types.Table{
		Name:      name,
		Columns:   cols,
		CreateSQL: createDDL(name, cols),
		InsertSQL: insertStmt(name, cols),
	}, nil
}

// CompileCreateDDL returns `CREATE TABLE name (col TYPE, ...)` for d.
func CompileCreateDDL(d Descriptor, r Resolver) (string, error) {
	t, err := Compile(d, r)
	if err != nil {
		return "", err
	}
	return t.CreateSQL, nil
}

// CompileInsert returns the parameterized insert for d, one numbered
// placeholder per field.
func CompileInsert(d Descriptor, r Resolver) (string, error) {
	t, err := Compile(d, r)
	if err != nil {
		return "", err
	}
	return t.InsertSQL, nil
}

func createDDL(name string, cols []types.Column) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(name)
	sb.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
		sb.WriteByte(' ')
		sb.WriteString(c.SQLType)
	}
	sb.WriteByte(')')
	return sb.String()
}

func insertStmt(name string, cols []types.Column) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(name)
	sb.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
	}
	sb.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('?')
		sb.WriteString(strconv.Itoa(i + 1))
	}
	sb.WriteByte(')')
	return sb.String()
}

func resolveIdent(r Resolver, uid uint32) (string, error) {
	s, err := r.Resolve(uid)
	if err != nil {
		return "", err
	}
	if !IsIdentifier(s) {
		return "", fmt.Errorf("%q: %w", s, types.ErrInvalidIdentifier)
	}
	return s, nil
}

// IsIdentifier reports whether s can be spliced into SQL unquoted.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
