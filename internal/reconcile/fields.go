package reconcile

import (
	"sort"
	"strings"
	"time"

	"jupiter/internal/domain"
)

// PropTags is the multi-select property of a smart list collection that
// mirrors the list's tags
const PropTags = domain.PropTags

// LabelSet resolves names of foreign entities used as select values
type LabelSet struct {
	byID   map[domain.EntityID]string
	byName map[string]domain.EntityID
	order  []domain.EntityID
}

// NewLabelSet indexes the non-archived leaves by name
func NewLabelSet[P any](leaves []domain.Leaf[P]) LabelSet {
	s := LabelSet{byID: map[domain.EntityID]string{}, byName: map[string]domain.EntityID{}}
	for _, l := range leaves {
		if l.Archived {
			continue
		}
		s.byID[l.RefID] = l.Name
		if _, taken := s.byName[l.Name]; !taken {
			s.byName[l.Name] = l.RefID
		}
		s.order = append(s.order, l.RefID)
	}
	return s
}

// Name returns the label of id, or "" when unknown
func (s LabelSet) Name(id domain.EntityID) string {
	return s.byID[id]
}

func (s LabelSet) ID(name string) (domain.EntityID, bool) {
	id, ok := s.byName[strings.TrimSpace(name)]
	return id, ok
}

// Names lists the labels in identity order
func (s LabelSet) Names() []string {
	names := make([]string, 0, len(s.order))
	for _, id := range s.order {
		names = append(names, s.byID[id])
	}
	return names
}

// Lookup carries what field mappings need beyond the leaf itself
type Lookup struct {
	Projects       LabelSet
	BigPlans       LabelSet
	Tags           LabelSet
	DefaultProject domain.EntityID
	Location       *time.Location
}

func (lk Lookup) labels(prop string) LabelSet {
	switch prop {
	case domain.PropProject:
		return lk.Projects
	case domain.PropBigPlan:
		return lk.BigPlans
	case PropTags:
		return lk.Tags
	}
	return LabelSet{}
}

// Field maps one payload attribute onto a remote property. Set is nil for
// properties the engine owns and only projects.
type Field[P any] struct {
	Property string
	Type     domain.PropertyType
	Options  []string
	// Label marks select properties whose options are the names of other
	// entities, kept in step by the label sync
	Label bool
	Get   func(l domain.Leaf[P], lk Lookup) domain.PropValue
	Set   func(l *domain.Leaf[P], v domain.PropValue, lk Lookup)
}

func (f Field[P]) schema(lk Lookup) domain.SchemaProperty {
	prop := domain.SchemaProperty{Name: f.Property, Type: f.Type}
	options := f.Options
	if f.Label {
		options = lk.labels(f.Property).Names()
	}
	for _, o := range options {
		prop.Options = append(prop.Options, domain.SelectOption{Name: o})
	}
	return prop
}

func readOnly[P any](f Field[P]) Field[P] {
	f.Set = nil
	return f
}

func enumField[P any, E ~string](prop string, all []E, optional bool, ref func(*P) *E) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropSelect,
		Options:  domain.EnumNames(all),
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			return domain.SelectValue(string(*ref(&l.Payload)))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			if v.Select == "" {
				if optional {
					*ref(&l.Payload) = ""
				}
				return
			}
			if e, err := domain.ParseEnum(prop, v.Select, all); err == nil {
				*ref(&l.Payload) = e
			}
		},
	}
}

func textField[P any](prop string, ref func(*P) *string) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropRichText,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			return domain.TextValue(*ref(&l.Payload))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			*ref(&l.Payload) = strings.TrimSpace(v.Text)
		},
	}
}

// skipRuleField keeps the previous rule when the remote text does not parse
func skipRuleField[P any](prop string, ref func(*P) *string) Field[P] {
	f := textField(prop, ref)
	f.Set = func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
		raw := strings.TrimSpace(v.Text)
		if _, err := domain.ParseSkipRule(raw); err == nil {
			*ref(&l.Payload) = raw
		}
	}
	return f
}

func urlField[P any](prop string, ref func(*P) *string) Field[P] {
	f := textField(prop, ref)
	f.Type = domain.PropURL
	f.Get = func(l domain.Leaf[P], _ Lookup) domain.PropValue {
		return domain.URLValue(*ref(&l.Payload))
	}
	return f
}

func checkboxField[P any](prop string, ref func(*P) *bool) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropCheckbox,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			return domain.CheckboxValue(*ref(&l.Payload))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			*ref(&l.Payload) = v.Checkbox
		},
	}
}

// dateField maps an optional civil date
func dateField[P any](prop string, ref func(*P) **time.Time) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropDate,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			return domain.DateOnlyValue(*ref(&l.Payload))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, lk Lookup) {
			if v.Date == nil {
				*ref(&l.Payload) = nil
				return
			}
			d := v.Date.Start
			if v.Date.HasTime {
				d = domain.Date(d, lk.Location)
			}
			*ref(&l.Payload) = &d
		},
	}
}

// requiredDateField maps a civil date that cannot be cleared
func requiredDateField[P any](prop string, ref func(*P) *time.Time) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropDate,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			d := *ref(&l.Payload)
			return domain.DateOnlyValue(&d)
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, lk Lookup) {
			if v.Date == nil {
				return
			}
			d := v.Date.Start
			if v.Date.HasTime {
				d = domain.Date(d, lk.Location)
			}
			*ref(&l.Payload) = d
		},
	}
}

// instantField maps a date-time that cannot be cleared
func instantField[P any](prop string, ref func(*P) *time.Time) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropDate,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			return domain.DateTimeValue(*ref(&l.Payload))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, lk Lookup) {
			if v.Date == nil {
				return
			}
			t := v.Date.Start
			if !v.Date.HasTime {
				t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, lk.Location)
			}
			*ref(&l.Payload) = t.UTC()
		},
	}
}

func numberField[P any](prop string, ref func(*P) *float64) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropNumber,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			return domain.NumberOf(*ref(&l.Payload))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			if v.Number != nil {
				*ref(&l.Payload) = *v.Number
			}
		},
	}
}

// optionalIntField maps an optional day or month offset
func optionalIntField[P any](prop string, ref func(*P) **int) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropNumber,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			n := *ref(&l.Payload)
			if n == nil {
				return domain.NumberValue(nil)
			}
			return domain.NumberOf(float64(*n))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			if v.Number == nil {
				*ref(&l.Payload) = nil
				return
			}
			n := int(*v.Number)
			*ref(&l.Payload) = &n
		},
	}
}

func intField[P any](prop string, ref func(*P) *int) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropNumber,
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			n := *ref(&l.Payload)
			if n == 0 {
				return domain.NumberValue(nil)
			}
			return domain.NumberOf(float64(n))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			if v.Number == nil {
				*ref(&l.Payload) = 0
				return
			}
			*ref(&l.Payload) = int(*v.Number)
		},
	}
}

// labelField projects a reference to a project or big plan as its name.
// Unknown names leave the reference as it is, unless required is false and
// the value was cleared.
func labelField[P any](prop string, required bool, ref func(*P) *domain.EntityID) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropSelect,
		Label:    true,
		Get: func(l domain.Leaf[P], lk Lookup) domain.PropValue {
			id := *ref(&l.Payload)
			if !id.IsSet() && required {
				id = lk.DefaultProject
			}
			return domain.SelectValue(lk.labels(prop).Name(id))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, lk Lookup) {
			if v.Select == "" {
				if !required {
					*ref(&l.Payload) = domain.BadRefID
				}
				return
			}
			if id, ok := lk.labels(prop).ID(v.Select); ok {
				*ref(&l.Payload) = id
			}
		},
	}
}

func projectField[P any](ref func(*P) *domain.EntityID) Field[P] {
	return labelField(domain.PropProject, true, ref)
}

func bigPlanField[P any](ref func(*P) *domain.EntityID) Field[P] {
	return labelField(domain.PropBigPlan, false, ref)
}

// tagsField projects tag references as a multi-select
func tagsField[P any](ref func(*P) *[]domain.EntityID) Field[P] {
	return Field[P]{
		Property: PropTags,
		Type:     domain.PropMultiSelect,
		Label:    true,
		Get: func(l domain.Leaf[P], lk Lookup) domain.PropValue {
			var names []string
			for _, id := range *ref(&l.Payload) {
				if n := lk.Tags.Name(id); n != "" {
					names = append(names, n)
				}
			}
			sort.Strings(names)
			return domain.MultiSelectValue(names)
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, lk Lookup) {
			var ids []domain.EntityID
			for _, n := range v.MultiSelect {
				if id, ok := lk.Tags.ID(n); ok {
					ids = append(ids, id)
				}
			}
			*ref(&l.Payload) = ids
		},
	}
}
