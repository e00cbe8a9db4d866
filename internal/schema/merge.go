// Package schema rewrites remote collection schemas without losing the
// identifiers of select and multi-select options.
package schema

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"jupiter/internal/domain"
)

// LabelProperties are owned by the label sync flow. Merge leaves them as
// they are on the remote unless named in Hint.NewlyAdded.
var LabelProperties = []string{domain.PropProject, domain.PropBigPlan, domain.PropTags}

// Hint carries caller knowledge about the wanted schema
type Hint struct {
	// NewlyAdded lists properties whose wanted definition must be written
	// even when they are label properties
	NewlyAdded []string
}

func (h Hint) isNew(name string) bool {
	return slices.Contains(h.NewlyAdded, name)
}

// Merge computes the schema to write given the current remote schema and
// the wanted one. Plain properties take the wanted definition. Select
// options are matched by display value: a match keeps the current id, a new
// value gets a fresh one. Properties only present remotely are kept.
func Merge(current, want domain.Schema, hint Hint) domain.Schema {
	out := make(domain.Schema, len(want)+len(current))
	for name, prop := range current {
		out[name] = cloneProperty(name, prop)
	}

	for name, prop := range want {
		prop = cloneProperty(name, prop)
		old, exists := current[name]

		if exists && slices.Contains(LabelProperties, name) && !hint.isNew(name) && old.Type == prop.Type {
			continue
		}
		if prop.Type.IsSelect() {
			if exists && old.Type.IsSelect() {
				prop.Options = MergeOptions(old.Options, prop.Options)
			} else {
				prop.Options = MergeOptions(nil, prop.Options)
			}
		}
		out[name] = prop
	}
	return out
}

// MergeOptions keeps the order of want while reusing the identifiers of
// current options with the same display value
func MergeOptions(current, want []domain.SelectOption) []domain.SelectOption {
	byName := make(map[string]domain.SelectOption, len(current))
	for _, o := range current {
		byName[o.Name] = o
	}
	out := make([]domain.SelectOption, 0, len(want))
	seen := map[string]bool{}
	for _, o := range want {
		if o.Name == "" || seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		if old, ok := byName[o.Name]; ok {
			o.ID = old.ID
			if o.Color == "" {
				o.Color = old.Color
			}
		} else if o.ID == "" {
			o.ID = uuid.NewString()
		}
		out = append(out, o)
	}
	return out
}

// OptionsFor builds an option list from display values
func OptionsFor(names ...string) []domain.SelectOption {
	out := make([]domain.SelectOption, 0, len(names))
	for _, n := range names {
		out = append(out, domain.SelectOption{Name: n})
	}
	return out
}

func cloneProperty(name string, p domain.SchemaProperty) domain.SchemaProperty {
	p.Name = name
	p.Options = slices.Clone(p.Options)
	return p
}

// Equal reports whether writing b over a would change anything observable:
// property names, types, and option ids and display values
func Equal(a, b domain.Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for name, pa := range a {
		pb, ok := b[name]
		if !ok || pa.Type != pb.Type {
			return false
		}
		if !pa.Type.IsSelect() {
			continue
		}
		if len(pa.Options) != len(pb.Options) {
			return false
		}
		for _, oa := range pa.Options {
			ob, ok := pb.Option(oa.Name)
			if !ok || (oa.ID != "" && ob.ID != "" && oa.ID != ob.ID) {
				return false
			}
		}
	}
	return true
}

// Check verifies every wanted property exists with the wanted type
func Check(actual, want domain.Schema) error {
	for _, name := range want.Names() {
		got, ok := actual[name]
		if !ok {
			return fmt.Errorf("%w: property %q is missing", domain.ErrSchemaMismatch, name)
		}
		if got.Type != want[name].Type {
			return fmt.Errorf("%w: property %q is %s, expected %s", domain.ErrSchemaMismatch, name, got.Type, want[name].Type)
		}
	}
	return nil
}
