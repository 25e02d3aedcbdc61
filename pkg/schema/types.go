// Package schema provides the structured column schemas, the schema
// description parser and the registry that maps resource types to schemas.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kind identifies the type of a column
type Kind string

const (
	KindString    Kind = "string"
	KindBoolean   Kind = "boolean"
	KindInt32     Kind = "int32"
	KindInt64     Kind = "int64"
	KindFloat32   Kind = "float32"
	KindFloat64   Kind = "float64"
	KindDate      Kind = "date"
	KindTimestamp Kind = "timestamp"
	KindBinary    Kind = "binary"
	KindStruct    Kind = "struct"
	KindList      Kind = "list"
)

// Type is a column type. Fields is set for struct types and Elem for
// list types; both are nil for primitives.
type Type struct {
	Kind   Kind
	Fields []Column
	Elem   *Type
}

// Column is a named, typed column
type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Schema is the ordered list of columns registered for a resource type
type Schema struct {
	Name    string
	Columns []Column
}

// Primitive returns a primitive type of the given kind
func Primitive(kind Kind) Type {
	return Type{Kind: kind}
}

// StructOf returns a struct type with the given child columns
func StructOf(fields ...Column) Type {
	return Type{Kind: KindStruct, Fields: fields}
}

// ListOf returns a list type with the given element type
func ListOf(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

// String renders the type in a compact form, e.g. struct<a:string,b:list<int64>>
func (t Type) String() string {
	switch t.Kind {
	case KindStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ":" + f.Type.String()
		}
		return "struct<" + strings.Join(parts, ",") + ">"
	case KindList:
		if t.Elem == nil {
			return "list<?>"
		}
		return "list<" + t.Elem.String() + ">"
	default:
		return string(t.Kind)
	}
}

// Equal reports whether two types are structurally equal
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindStruct:
		return columnsEqual(t.Fields, other.Fields)
	case KindList:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	default:
		return true
	}
}

// Equal reports whether two schemas have the same columns in the same order
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return columnsEqual(s.Columns, other.Columns)
}

// Column returns the top-level column with the given name
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Fingerprint returns a stable digest of the column names, types and
// nullability.
func (s *Schema) Fingerprint() string {
	var b strings.Builder
	writeColumns(&b, s.Columns)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeColumns(b *strings.Builder, cols []Column) {
	for _, c := range cols {
		b.WriteString(c.Name)
		b.WriteByte(':')
		b.WriteString(c.Type.String())
		if !c.Nullable {
			b.WriteByte('!')
		}
		b.WriteByte(';')
		if c.Type.Kind == KindStruct {
			writeColumns(b, c.Type.Fields)
		}
	}
}

func columnsEqual(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Nullable != b[i].Nullable || !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}

// ToArrow converts the schema to an arrow schema. The schema name is kept
// in the metadata under "resource_type".
func (s *Schema) ToArrow() (*arrow.Schema, error) {
	fields, err := toArrowFields(s.Columns)
	if err != nil {
		return nil, err
	}
	md := arrow.NewMetadata([]string{"resource_type"}, []string{s.Name})
	return arrow.NewSchema(fields, &md), nil
}

func toArrowFields(cols []Column) ([]arrow.Field, error) {
	fields := make([]arrow.Field, 0, len(cols))
	for _, c := range cols {
		dt, err := c.Type.ToArrow()
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		fields = append(fields, arrow.Field{Name: c.Name, Type: dt, Nullable: c.Nullable})
	}
	return fields, nil
}

// ToArrow converts the type to an arrow data type
func (t Type) ToArrow() (arrow.DataType, error) {
	switch t.Kind {
	case KindString:
		return arrow.BinaryTypes.String, nil
	case KindBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case KindDate:
		return arrow.FixedWidthTypes.Date32, nil
	case KindTimestamp:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}, nil
	case KindBinary:
		return arrow.BinaryTypes.Binary, nil
	case KindStruct:
		fields, err := toArrowFields(t.Fields)
		if err != nil {
			return nil, err
		}
		return arrow.StructOf(fields...), nil
	case KindList:
		if t.Elem == nil {
			return nil, fmt.Errorf("list type has no element type")
		}
		elem, err := t.Elem.ToArrow()
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	default:
		return nil, fmt.Errorf("unsupported column type: %s", t.Kind)
	}
}
