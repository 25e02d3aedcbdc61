package schema

import (
	"fmt"
	"sort"

	jsonpool "github.com/ajitpratap0/jsonparquet/pkg/json"
)

// kindUnresolved marks a type seen only through null values or empty lists
const kindUnresolved Kind = ""

// InferType infers a column type from a decoded JSON value. Numbers must
// have been decoded as json.Number. Object members are ordered by name.
func InferType(value interface{}) (Type, error) {
	switch v := value.(type) {
	case nil:
		return Type{}, nil
	case bool:
		return Primitive(KindBoolean), nil
	case jsonpool.Number:
		if _, err := v.Int64(); err == nil {
			return Primitive(KindInt64), nil
		}
		return Primitive(KindFloat64), nil
	case float64:
		return Primitive(KindFloat64), nil
	case string:
		return Primitive(KindString), nil
	case map[string]interface{}:
		if len(v) == 0 {
			return Type{}, nil
		}
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)

		fields := make([]Column, 0, len(names))
		for _, name := range names {
			t, err := InferType(v[name])
			if err != nil {
				return Type{}, fmt.Errorf("%s: %w", name, err)
			}
			fields = append(fields, Column{Name: name, Type: t, Nullable: true})
		}
		return StructOf(fields...), nil
	case []interface{}:
		elem := Type{}
		for i, item := range v {
			t, err := InferType(item)
			if err != nil {
				return Type{}, err
			}
			if elem, err = MergeTypes(elem, t); err != nil {
				return Type{}, fmt.Errorf("list item %d: %w", i, err)
			}
		}
		return ListOf(elem), nil
	default:
		return Type{}, fmt.Errorf("unsupported json value %T", value)
	}
}

// MergeTypes combines two inferred types. Unresolved types adopt the other
// side, int64 widens to float64, structs take the union of their fields and
// lists merge their elements. Any other mismatch is a conflict.
func MergeTypes(a, b Type) (Type, error) {
	switch {
	case a.Kind == kindUnresolved:
		return b, nil
	case b.Kind == kindUnresolved:
		return a, nil
	}

	if a.Kind != b.Kind {
		if isNumeric(a.Kind) && isNumeric(b.Kind) {
			return Primitive(KindFloat64), nil
		}
		return Type{}, fmt.Errorf("conflicting inferred types %s and %s", a, b)
	}

	switch a.Kind {
	case KindStruct:
		merged := make([]Column, len(a.Fields))
		copy(merged, a.Fields)
		for _, f := range b.Fields {
			idx := -1
			for i := range merged {
				if merged[i].Name == f.Name {
					idx = i
					break
				}
			}
			if idx < 0 {
				merged = append(merged, f)
				continue
			}
			t, err := MergeTypes(merged[idx].Type, f.Type)
			if err != nil {
				return Type{}, fmt.Errorf("%s: %w", f.Name, err)
			}
			merged[idx].Type = t
		}
		return StructOf(merged...), nil
	case KindList:
		elem, err := MergeTypes(*a.Elem, *b.Elem)
		if err != nil {
			return Type{}, err
		}
		return ListOf(elem), nil
	default:
		return a, nil
	}
}

// Resolve replaces every unresolved part of t with string so the type can
// be materialized.
func Resolve(t Type) Type {
	switch t.Kind {
	case kindUnresolved:
		return Primitive(KindString)
	case KindStruct:
		fields := make([]Column, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = Column{Name: f.Name, Type: Resolve(f.Type), Nullable: f.Nullable}
		}
		return StructOf(fields...)
	case KindList:
		return ListOf(Resolve(*t.Elem))
	default:
		return t
	}
}

func isNumeric(k Kind) bool {
	return k == KindInt64 || k == KindFloat64
}
