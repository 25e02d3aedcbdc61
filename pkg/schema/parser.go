package schema

import (
	"strings"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	jsonpool "github.com/ajitpratap0/jsonparquet/pkg/json"
)

// typeNames accepts "type": "string" as well as "type": ["string", "null"]
type typeNames []string

func (t *typeNames) UnmarshalJSON(data []byte) error {
	var single string
	if err := jsonpool.Unmarshal(data, &single); err == nil {
		*t = typeNames{single}
		return nil
	}
	var many []string
	if err := jsonpool.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

type propertyHeader struct {
	Type       typeNames           `json:"type"`
	Format     string              `json:"format"`
	Items      jsonpool.RawMessage `json:"items"`
	Properties jsonpool.RawMessage `json:"properties"`
	Required   []string            `json:"required"`
}

// Parse parses a schema description for the given resource type.
//
// A description is a JSON object in JSON-Schema style whose properties, in
// document order, become the columns:
//
//	{
//	  "type": "object",
//	  "required": ["id"],
//	  "properties": {
//	    "id":        {"type": "string"},
//	    "birthDate": {"type": "string", "format": "date"},
//	    "name":      {"type": "array", "items": {"type": "object", "properties": {"family": {"type": "string"}}}}
//	  }
//	}
//
// Supported types are string, integer, number, boolean, object and array;
// format refines primitives (int32, int64, float, double, date, date-time,
// byte). Columns are nullable unless listed in required; a required column
// whose type also lists "null" stays nullable.
func Parse(key, description string) (*Schema, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New(errors.ErrorTypeSchemaParse, "schema key is empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, errors.New(errors.ErrorTypeSchemaParse, "schema description is empty").
			WithDetail("key", key)
	}

	var root propertyHeader
	if err := jsonpool.Unmarshal([]byte(description), &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSchemaParse, "schema description is not a valid json object").
			WithDetail("key", key)
	}

	typ, err := parseObject(key, root)
	if err != nil {
		return nil, err
	}

	return &Schema{Name: key, Columns: typ.Fields}, nil
}

func parseObject(path string, h propertyHeader) (Type, error) {
	kind, _, err := primaryType(path, h.Type)
	if err != nil {
		return Type{}, err
	}
	if kind != "object" {
		return Type{}, errors.Newf(errors.ErrorTypeSchemaParse, "%s: type %q should be \"object\"", path, kind)
	}
	if len(h.Properties) == 0 {
		return Type{}, errors.Newf(errors.ErrorTypeSchemaParse, "%s: object has no properties", path)
	}

	var props jsonpool.OrderedObject
	if err := jsonpool.Unmarshal(h.Properties, &props); err != nil {
		return Type{}, errors.Wrap(err, errors.ErrorTypeSchemaParse, path+": properties must be an object")
	}
	if len(props) == 0 {
		return Type{}, errors.Newf(errors.ErrorTypeSchemaParse, "%s: object has no properties", path)
	}

	required := make(map[string]bool, len(h.Required))
	for _, name := range h.Required {
		required[name] = true
	}

	columns := make([]Column, 0, len(props))
	for _, prop := range props {
		if strings.TrimSpace(prop.Key) == "" {
			return Type{}, errors.Newf(errors.ErrorTypeSchemaParse, "%s: property name is empty", path)
		}
		childPath := path + "." + prop.Key

		var ph propertyHeader
		if err := jsonpool.Unmarshal(prop.Value, &ph); err != nil {
			return Type{}, errors.Wrap(err, errors.ErrorTypeSchemaParse, childPath+": property must be an object")
		}

		typ, nullable, err := parseProperty(childPath, ph)
		if err != nil {
			return Type{}, err
		}

		columns = append(columns, Column{
			Name:     prop.Key,
			Type:     typ,
			Nullable: nullable || !required[prop.Key],
		})
	}

	for name := range required {
		if _, ok := props.Get(name); !ok {
			return Type{}, errors.Newf(errors.ErrorTypeSchemaParse, "%s: required property %q is not declared", path, name)
		}
	}

	return StructOf(columns...), nil
}

func parseProperty(path string, h propertyHeader) (Type, bool, error) {
	kind, nullable, err := primaryType(path, h.Type)
	if err != nil {
		return Type{}, false, err
	}

	switch kind {
	case "string":
		switch h.Format {
		case "date":
			return Primitive(KindDate), nullable, nil
		case "date-time":
			return Primitive(KindTimestamp), nullable, nil
		case "byte", "binary":
			return Primitive(KindBinary), nullable, nil
		default:
			return Primitive(KindString), nullable, nil
		}
	case "integer":
		if h.Format == "int32" {
			return Primitive(KindInt32), nullable, nil
		}
		return Primitive(KindInt64), nullable, nil
	case "number":
		if h.Format == "float" {
			return Primitive(KindFloat32), nullable, nil
		}
		return Primitive(KindFloat64), nullable, nil
	case "boolean":
		return Primitive(KindBoolean), nullable, nil
	case "object":
		typ, err := parseObject(path, h)
		return typ, nullable, err
	case "array":
		if len(h.Items) == 0 {
			return Type{}, false, errors.Newf(errors.ErrorTypeSchemaParse, "%s: array has no items", path)
		}
		var ih propertyHeader
		if err := jsonpool.Unmarshal(h.Items, &ih); err != nil {
			return Type{}, false, errors.Wrap(err, errors.ErrorTypeSchemaParse, path+": items must be an object")
		}
		elem, _, err := parseProperty(path+"[]", ih)
		if err != nil {
			return Type{}, false, err
		}
		return ListOf(elem), nullable, nil
	default:
		return Type{}, false, errors.Newf(errors.ErrorTypeSchemaParse, "%s: type %q is not a basic type", path, kind)
	}
}

// primaryType returns the single non-null type name and whether "null" was
// listed alongside it.
func primaryType(path string, names typeNames) (string, bool, error) {
	var primary string
	nullable := false
	for _, name := range names {
		if name == "null" {
			nullable = true
			continue
		}
		if primary != "" {
			return "", false, errors.Newf(errors.ErrorTypeSchemaParse, "%s: union types are not supported", path)
		}
		primary = name
	}
	if primary == "" {
		return "", false, errors.Newf(errors.ErrorTypeSchemaParse, "%s: no \"type\" keyword or \"type\" is null", path)
	}
	return primary, nullable, nil
}
