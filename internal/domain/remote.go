package domain

import (
	"slices"
	"strconv"
	"time"
)

// Conventional property names every managed collection carries
const (
	PropName           = "Name"
	PropRefID          = "Ref Id"
	PropArchived       = "Archived"
	PropLastEditedTime = "Last Edited Time"

	// Label properties whose options are kept in step with local entities
	PropProject = "Project"
	PropBigPlan = "Big Plan"
	PropTags    = "Tags"
)

// PropertyType is the remote schema type of a property
type PropertyType string

const (
	PropTitle          PropertyType = "title"
	PropRichText       PropertyType = "rich_text"
	PropNumber         PropertyType = "number"
	PropDate           PropertyType = "date"
	PropSelect         PropertyType = "select"
	PropMultiSelect    PropertyType = "multi_select"
	PropCheckbox       PropertyType = "checkbox"
	PropURL            PropertyType = "url"
	PropLastEditedType PropertyType = "last_edited_time"
)

// IsSelect reports whether the property carries an option list
func (t PropertyType) IsSelect() bool {
	return t == PropSelect || t == PropMultiSelect
}

// DateValue is a date-only or date-time value
type DateValue struct {
	Start   time.Time
	HasTime bool
}

// PropValue is one typed property value on a remote item
type PropValue struct {
	Type        PropertyType
	Text        string
	Number      *float64
	Date        *DateValue
	Select      string
	MultiSelect []string
	Checkbox    bool
	Time        time.Time
}

func TitleValue(s string) PropValue { return PropValue{Type: PropTitle, Text: s} }
func TextValue(s string) PropValue  { return PropValue{Type: PropRichText, Text: s} }
func URLValue(s string) PropValue   { return PropValue{Type: PropURL, Text: s} }

func NumberValue(n *float64) PropValue {
	return PropValue{Type: PropNumber, Number: n}
}

func NumberOf(n float64) PropValue { return NumberValue(&n) }

// DateOnlyValue carries a civil date; nil clears the property
func DateOnlyValue(t *time.Time) PropValue {
	if t == nil {
		return PropValue{Type: PropDate}
	}
	return PropValue{Type: PropDate, Date: &DateValue{Start: Date(*t, time.UTC)}}
}

func DateTimeValue(t time.Time) PropValue {
	return PropValue{Type: PropDate, Date: &DateValue{Start: t, HasTime: true}}
}

func SelectValue(name string) PropValue { return PropValue{Type: PropSelect, Select: name} }

func MultiSelectValue(names []string) PropValue {
	return PropValue{Type: PropMultiSelect, MultiSelect: names}
}

func CheckboxValue(b bool) PropValue { return PropValue{Type: PropCheckbox, Checkbox: b} }

// IsEmpty reports whether the value carries nothing
func (v PropValue) IsEmpty() bool {
	switch v.Type {
	case PropTitle, PropRichText, PropURL:
		return v.Text == ""
	case PropNumber:
		return v.Number == nil
	case PropDate:
		return v.Date == nil
	case PropSelect:
		return v.Select == ""
	case PropMultiSelect:
		return len(v.MultiSelect) == 0
	case PropCheckbox:
		return !v.Checkbox
	case PropLastEditedType:
		return v.Time.IsZero()
	}
	return true
}

// Equal compares two values. Dates are compared in loc: a date-only value
// equals a date-time value when the instant falls on that civil date.
func (v PropValue) Equal(o PropValue, loc *time.Location) bool {
	if v.Type != o.Type {
		return v.IsEmpty() && o.IsEmpty()
	}
	switch v.Type {
	case PropTitle, PropRichText, PropURL:
		return v.Text == o.Text
	case PropNumber:
		if v.Number == nil || o.Number == nil {
			return v.Number == nil && o.Number == nil
		}
		return *v.Number == *o.Number
	case PropDate:
		return datesEqual(v.Date, o.Date, loc)
	case PropSelect:
		return v.Select == o.Select
	case PropMultiSelect:
		a, b := slices.Clone(v.MultiSelect), slices.Clone(o.MultiSelect)
		slices.Sort(a)
		slices.Sort(b)
		return slices.Equal(slices.Compact(a), slices.Compact(b))
	case PropCheckbox:
		return v.Checkbox == o.Checkbox
	case PropLastEditedType:
		return v.Time.Equal(o.Time)
	}
	return true
}

func datesEqual(a, b *DateValue, loc *time.Location) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.HasTime && b.HasTime {
		return a.Start.Truncate(time.Minute).Equal(b.Start.Truncate(time.Minute))
	}
	da, db := a.Start, b.Start
	if a.HasTime {
		da = Date(da, loc)
	} else {
		da = Date(da, time.UTC)
	}
	if b.HasTime {
		db = Date(db, loc)
	} else {
		db = Date(db, time.UTC)
	}
	return da.Equal(db)
}

// Properties is the property bag of a remote item
type Properties map[string]PropValue

// Clone copies the bag
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// EqualOn compares the bags on the given property names only
func (p Properties) EqualOn(o Properties, names []string, loc *time.Location) bool {
	for _, name := range names {
		if !p[name].Equal(o[name], loc) {
			return false
		}
	}
	return true
}

// Diff returns the subset of want whose values differ from p
func (p Properties) Diff(want Properties, loc *time.Location) Properties {
	out := Properties{}
	for k, v := range want {
		if !p[k].Equal(v, loc) {
			out[k] = v
		}
	}
	return out
}

func (p Properties) Text(name string) string { return p[name].Text }

func (p Properties) Select(name string) string { return p[name].Select }

func (p Properties) Checkbox(name string) bool { return p[name].Checkbox }

// SelectOption is one categorical value of a select property
type SelectOption struct {
	ID    string
	Name  string
	Color string
}

// SchemaProperty describes one column of a collection
type SchemaProperty struct {
	Name    string
	Type    PropertyType
	Options []SelectOption
}

// OptionNames lists the display values of the options
func (p SchemaProperty) OptionNames() []string {
	names := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		names = append(names, o.Name)
	}
	return names
}

// Option finds an option by display value
func (p SchemaProperty) Option(name string) (SelectOption, bool) {
	for _, o := range p.Options {
		if o.Name == name {
			return o, true
		}
	}
	return SelectOption{}, false
}

// Schema maps property name to its description
type Schema map[string]SchemaProperty

// Names returns the property names in sorted order
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// RemotePage is a single named document
type RemotePage struct {
	ID             RemoteID
	ParentID       RemoteID
	Title          string
	Archived       bool
	LastEditedTime time.Time
}

// RemoteCollection is a database with a schema
type RemoteCollection struct {
	ID             RemoteID
	ParentPageID   RemoteID
	Title          string
	Schema         Schema
	Archived       bool
	LastEditedTime time.Time
}

// RemoteItem is a row of a collection
type RemoteItem struct {
	ID             RemoteID
	CollectionID   RemoteID
	Properties     Properties
	LastEditedTime time.Time
}

// RefIDText is the raw text of the Ref Id property
func (r RemoteItem) RefIDText() string {
	return r.Properties.Text(PropRefID)
}

// RefID parses the Ref Id property
func (r RemoteItem) RefID() Optional[EntityID] {
	id, err := ParseEntityID(r.RefIDText())
	if err != nil {
		return NotFound[EntityID]()
	}
	return Found(id)
}

// IsArchived reads the Archived checkbox
func (r RemoteItem) IsArchived() bool {
	return r.Properties.Checkbox(PropArchived)
}

// Name reads the title property
func (r RemoteItem) Name() string {
	return r.Properties.Text(PropName)
}

// RefIDValue renders a local identity for the Ref Id property
func RefIDValue(id EntityID) PropValue {
	return TextValue(strconv.FormatInt(int64(id), 10))
}

// BlockType is the restricted set of content blocks used as item bodies
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading_2"
	BlockBullet    BlockType = "bulleted_list_item"
	BlockToDo      BlockType = "to_do"
)

// Block is one content block of an item body
type Block struct {
	ID      RemoteID
	Type    BlockType
	Text    string
	Checked bool
}
