package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// ChangeType represents the type of schema change
type ChangeType string

const (
	ChangeTypeAddColumn      ChangeType = "ADD_COLUMN"
	ChangeTypeRemoveColumn   ChangeType = "REMOVE_COLUMN"
	ChangeTypeModifyType     ChangeType = "MODIFY_TYPE"
	ChangeTypeModifyNullable ChangeType = "MODIFY_NULLABLE"
)

// Change is a single difference between two schemas. Nested struct columns
// are reported with dotted paths.
type Change struct {
	Type   ChangeType
	Column string
	Old    *Column
	New    *Column
}

func (c Change) String() string {
	switch c.Type {
	case ChangeTypeAddColumn:
		return fmt.Sprintf("%s %s %s", c.Type, c.Column, c.New.Type)
	case ChangeTypeRemoveColumn:
		return fmt.Sprintf("%s %s", c.Type, c.Column)
	case ChangeTypeModifyType:
		return fmt.Sprintf("%s %s %s -> %s", c.Type, c.Column, c.Old.Type, c.New.Type)
	default:
		return fmt.Sprintf("%s %s nullable %t -> %t", c.Type, c.Column, c.Old.Nullable, c.New.Nullable)
	}
}

// CompatibilityMode selects which schema replacements a registry accepts
type CompatibilityMode string

const (
	// CompatibilityNone accepts every replacement
	CompatibilityNone CompatibilityMode = "none"
	// CompatibilityBackward requires that documents valid under the old
	// schema still convert under the new one
	CompatibilityBackward CompatibilityMode = "backward"
	// CompatibilityForward requires that documents valid under the new
	// schema would have converted under the old one
	CompatibilityForward CompatibilityMode = "forward"
	// CompatibilityFull requires both
	CompatibilityFull CompatibilityMode = "full"
)

// ParseCompatibilityMode maps a configuration name to a mode; "" is none
func ParseCompatibilityMode(name string) (CompatibilityMode, error) {
	switch mode := CompatibilityMode(strings.ToLower(strings.TrimSpace(name))); mode {
	case "":
		return CompatibilityNone, nil
	case CompatibilityNone, CompatibilityBackward, CompatibilityForward, CompatibilityFull:
		return mode, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown compatibility mode %q", name)
	}
}

// Diff returns the changes that turn old into new, sorted by change type
// and column path
func Diff(old, new *Schema) []Change {
	var changes []Change
	diffColumns("", old.Columns, new.Columns, &changes)

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Type != changes[j].Type {
			return changes[i].Type < changes[j].Type
		}
		return changes[i].Column < changes[j].Column
	})
	return changes
}

func diffColumns(prefix string, old, new []Column, changes *[]Change) {
	oldCols := make(map[string]*Column, len(old))
	for i := range old {
		oldCols[old[i].Name] = &old[i]
	}
	newCols := make(map[string]*Column, len(new))
	for i := range new {
		newCols[new[i].Name] = &new[i]
	}

	for name, oc := range oldCols {
		if _, ok := newCols[name]; !ok {
			*changes = append(*changes, Change{Type: ChangeTypeRemoveColumn, Column: prefix + name, Old: oc})
		}
	}

	for name, nc := range newCols {
		oc, ok := oldCols[name]
		if !ok {
			*changes = append(*changes, Change{Type: ChangeTypeAddColumn, Column: prefix + name, New: nc})
			continue
		}

		if oc.Type.Kind == KindStruct && nc.Type.Kind == KindStruct {
			diffColumns(prefix+name+".", oc.Type.Fields, nc.Type.Fields, changes)
		} else if !oc.Type.Equal(nc.Type) {
			*changes = append(*changes, Change{Type: ChangeTypeModifyType, Column: prefix + name, Old: oc, New: nc})
		}
		if oc.Nullable != nc.Nullable {
			*changes = append(*changes, Change{Type: ChangeTypeModifyNullable, Column: prefix + name, Old: oc, New: nc})
		}
	}
}

// CheckCompatibility reports the first change that mode does not allow.
// Violations are schema_parse errors.
func CheckCompatibility(old, new *Schema, mode CompatibilityMode) error {
	if mode == CompatibilityNone || mode == "" {
		return nil
	}

	for _, c := range Diff(old, new) {
		var reason string
		if mode == CompatibilityBackward || mode == CompatibilityFull {
			reason = backwardViolation(c)
		}
		if reason == "" && (mode == CompatibilityForward || mode == CompatibilityFull) {
			reason = forwardViolation(c)
		}
		if reason != "" {
			return errors.Newf(errors.ErrorTypeSchemaParse, "%s change is not allowed: %s", mode, reason).
				WithDetail("change", c.String())
		}
	}
	return nil
}

func backwardViolation(c Change) string {
	switch c.Type {
	case ChangeTypeAddColumn:
		if !c.New.Nullable {
			return fmt.Sprintf("cannot add required column %q", c.Column)
		}
	case ChangeTypeModifyType:
		if !typesCompatible(c.Old.Type, c.New.Type) {
			return fmt.Sprintf("incompatible type change for column %q: %s -> %s", c.Column, c.Old.Type, c.New.Type)
		}
	case ChangeTypeModifyNullable:
		if !c.New.Nullable {
			return fmt.Sprintf("cannot make column %q required", c.Column)
		}
	}
	return ""
}

func forwardViolation(c Change) string {
	switch c.Type {
	case ChangeTypeRemoveColumn:
		if !c.Old.Nullable {
			return fmt.Sprintf("cannot remove required column %q", c.Column)
		}
	case ChangeTypeModifyType:
		if !typesCompatible(c.New.Type, c.Old.Type) {
			return fmt.Sprintf("incompatible type change for column %q: %s -> %s", c.Column, c.Old.Type, c.New.Type)
		}
	case ChangeTypeModifyNullable:
		if c.New.Nullable {
			return fmt.Sprintf("cannot make required column %q nullable", c.Column)
		}
	}
	return ""
}

// widenings lists the kinds a JSON value of each kind still parses as
var widenings = map[Kind][]Kind{
	KindInt32:   {KindInt64, KindFloat32, KindFloat64},
	KindInt64:   {KindFloat64},
	KindFloat32: {KindFloat64},
}

// typesCompatible reports whether values of type from parse as type to
func typesCompatible(from, to Type) bool {
	if from.Equal(to) {
		return true
	}
	if from.Kind == KindList && to.Kind == KindList {
		return typesCompatible(*from.Elem, *to.Elem)
	}
	for _, k := range widenings[from.Kind] {
		if k == to.Kind {
			return true
		}
	}
	return false
}
