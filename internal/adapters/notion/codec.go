package notion

import (
	"strings"
	"time"

	"jupiter/internal/domain"
)

// Wire shapes of the service's JSON. Reads go through these structs; writes
// are built as maps so that clearing a value sends an explicit null.

type richText struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type wireOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type wireDate struct {
	Start string `json:"start"`
}

type wireParent struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

type wirePropertyValue struct {
	Type           string       `json:"type"`
	Title          []richText   `json:"title"`
	RichText       []richText   `json:"rich_text"`
	Number         *float64     `json:"number"`
	Date           *wireDate    `json:"date"`
	Select         *wireOption  `json:"select"`
	MultiSelect    []wireOption `json:"multi_select"`
	Checkbox       bool         `json:"checkbox"`
	URL            *string      `json:"url"`
	LastEditedTime string       `json:"last_edited_time"`
}

type wirePage struct {
	Object         string                       `json:"object"`
	ID             string                       `json:"id"`
	Parent         wireParent                   `json:"parent"`
	Archived       bool                         `json:"archived"`
	LastEditedTime string                       `json:"last_edited_time"`
	Properties     map[string]wirePropertyValue `json:"properties"`
}

type wireOptions struct {
	Options []wireOption `json:"options"`
}

type wireSchemaProperty struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Select      *wireOptions `json:"select"`
	MultiSelect *wireOptions `json:"multi_select"`
}

type wireDatabase struct {
	Object         string                        `json:"object"`
	ID             string                        `json:"id"`
	Parent         wireParent                    `json:"parent"`
	Title          []richText                    `json:"title"`
	Archived       bool                          `json:"archived"`
	LastEditedTime string                        `json:"last_edited_time"`
	Properties     map[string]wireSchemaProperty `json:"properties"`
}

type wireBlock struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Paragraph *wireBlockText `json:"paragraph,omitempty"`
	Heading2  *wireBlockText `json:"heading_2,omitempty"`
	Bullet    *wireBlockText `json:"bulleted_list_item,omitempty"`
	ToDo      *wireBlockText `json:"to_do,omitempty"`
	ChildPage *wireChildRef  `json:"child_page,omitempty"`
	ChildDB   *wireChildRef  `json:"child_database,omitempty"`
	Archived  bool           `json:"archived,omitempty"`
}

type wireBlockText struct {
	RichText []richText `json:"rich_text"`
	Checked  *bool      `json:"checked,omitempty"`
}

type wireChildRef struct {
	Title string `json:"title"`
}

type wireList[T any] struct {
	Results    []T     `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

func plainText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		if p.PlainText != "" {
			b.WriteString(p.PlainText)
		} else if p.Text != nil {
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}

func textParts(s string) []richText {
	if s == "" {
		return []richText{}
	}
	return []richText{{Type: "text", Text: &textContent{Content: s}}}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func decodeDate(d *wireDate) *domain.DateValue {
	if d == nil || d.Start == "" {
		return nil
	}
	if len(d.Start) == len(time.DateOnly) {
		t, err := time.Parse(time.DateOnly, d.Start)
		if err != nil {
			return nil
		}
		return &domain.DateValue{Start: t}
	}
	t, err := time.Parse(time.RFC3339Nano, d.Start)
	if err != nil {
		return nil
	}
	return &domain.DateValue{Start: t, HasTime: true}
}

func decodeProperty(w wirePropertyValue) domain.PropValue {
	v := domain.PropValue{Type: domain.PropertyType(w.Type)}
	switch v.Type {
	case domain.PropTitle:
		v.Text = plainText(w.Title)
	case domain.PropRichText:
		v.Text = plainText(w.RichText)
	case domain.PropURL:
		if w.URL != nil {
			v.Text = *w.URL
		}
	case domain.PropNumber:
		v.Number = w.Number
	case domain.PropDate:
		v.Date = decodeDate(w.Date)
	case domain.PropSelect:
		if w.Select != nil {
			v.Select = w.Select.Name
		}
	case domain.PropMultiSelect:
		for _, o := range w.MultiSelect {
			v.MultiSelect = append(v.MultiSelect, o.Name)
		}
	case domain.PropCheckbox:
		v.Checkbox = w.Checkbox
	case domain.PropLastEditedType:
		v.Time = parseTime(w.LastEditedTime)
	}
	return v
}

// encodeProperty renders a value for a create or update body. The second
// result is false for read-only properties.
func encodeProperty(v domain.PropValue, loc *time.Location) (map[string]any, bool) {
	switch v.Type {
	case domain.PropTitle:
		return map[string]any{"title": textParts(v.Text)}, true
	case domain.PropRichText:
		return map[string]any{"rich_text": textParts(v.Text)}, true
	case domain.PropURL:
		if v.Text == "" {
			return map[string]any{"url": nil}, true
		}
		return map[string]any{"url": v.Text}, true
	case domain.PropNumber:
		if v.Number == nil {
			return map[string]any{"number": nil}, true
		}
		return map[string]any{"number": *v.Number}, true
	case domain.PropDate:
		if v.Date == nil {
			return map[string]any{"date": nil}, true
		}
		if v.Date.HasTime {
			return map[string]any{"date": wireDate{Start: v.Date.Start.In(loc).Format(time.RFC3339)}}, true
		}
		return map[string]any{"date": wireDate{Start: v.Date.Start.Format(time.DateOnly)}}, true
	case domain.PropSelect:
		if v.Select == "" {
			return map[string]any{"select": nil}, true
		}
		return map[string]any{"select": wireOption{Name: v.Select}}, true
	case domain.PropMultiSelect:
		opts := make([]wireOption, 0, len(v.MultiSelect))
		for _, name := range v.MultiSelect {
			opts = append(opts, wireOption{Name: name})
		}
		return map[string]any{"multi_select": opts}, true
	case domain.PropCheckbox:
		return map[string]any{"checkbox": v.Checkbox}, true
	}
	return nil, false
}

func encodeProperties(props domain.Properties, loc *time.Location) map[string]any {
	out := make(map[string]any, len(props))
	for name, v := range props {
		if enc, ok := encodeProperty(v, loc); ok {
			out[name] = enc
		}
	}
	return out
}

func decodeItem(p wirePage) domain.RemoteItem {
	props := make(domain.Properties, len(p.Properties))
	for name, w := range p.Properties {
		props[name] = decodeProperty(w)
	}
	return domain.RemoteItem{
		ID:             domain.RemoteID(p.ID),
		CollectionID:   domain.RemoteID(p.Parent.DatabaseID),
		Properties:     props,
		LastEditedTime: parseTime(p.LastEditedTime),
	}
}

func decodePage(p wirePage) domain.RemotePage {
	var title string
	for _, w := range p.Properties {
		if w.Type == string(domain.PropTitle) {
			title = plainText(w.Title)
			break
		}
	}
	return domain.RemotePage{
		ID:             domain.RemoteID(p.ID),
		ParentID:       domain.RemoteID(p.Parent.PageID),
		Title:          title,
		Archived:       p.Archived,
		LastEditedTime: parseTime(p.LastEditedTime),
	}
}

func decodeOptions(w *wireOptions) []domain.SelectOption {
	if w == nil {
		return nil
	}
	out := make([]domain.SelectOption, 0, len(w.Options))
	for _, o := range w.Options {
		out = append(out, domain.SelectOption{ID: o.ID, Name: o.Name, Color: o.Color})
	}
	return out
}

func decodeDatabase(d wireDatabase) domain.RemoteCollection {
	schema := make(domain.Schema, len(d.Properties))
	for name, p := range d.Properties {
		prop := domain.SchemaProperty{Name: name, Type: domain.PropertyType(p.Type)}
		switch prop.Type {
		case domain.PropSelect:
			prop.Options = decodeOptions(p.Select)
		case domain.PropMultiSelect:
			prop.Options = decodeOptions(p.MultiSelect)
		}
		schema[name] = prop
	}
	return domain.RemoteCollection{
		ID:             domain.RemoteID(d.ID),
		ParentPageID:   domain.RemoteID(d.Parent.PageID),
		Title:          plainText(d.Title),
		Schema:         schema,
		Archived:       d.Archived,
		LastEditedTime: parseTime(d.LastEditedTime),
	}
}

func encodeSchema(schema domain.Schema) map[string]any {
	out := make(map[string]any, len(schema))
	for name, p := range schema {
		switch p.Type {
		case domain.PropSelect, domain.PropMultiSelect:
			opts := make([]wireOption, 0, len(p.Options))
			for _, o := range p.Options {
				opts = append(opts, wireOption{ID: o.ID, Name: o.Name, Color: o.Color})
			}
			out[name] = map[string]any{string(p.Type): wireOptions{Options: opts}}
		default:
			out[name] = map[string]any{string(p.Type): struct{}{}}
		}
	}
	return out
}

func decodeBlock(w wireBlock) (domain.Block, bool) {
	b := domain.Block{ID: domain.RemoteID(w.ID), Type: domain.BlockType(w.Type)}
	var body *wireBlockText
	switch b.Type {
	case domain.BlockParagraph:
		body = w.Paragraph
	case domain.BlockHeading:
		body = w.Heading2
	case domain.BlockBullet:
		body = w.Bullet
	case domain.BlockToDo:
		body = w.ToDo
	default:
		return b, false
	}
	if body != nil {
		b.Text = plainText(body.RichText)
		if body.Checked != nil {
			b.Checked = *body.Checked
		}
	}
	return b, true
}

func encodeBlock(b domain.Block) map[string]any {
	body := map[string]any{"rich_text": textParts(b.Text)}
	if b.Type == domain.BlockToDo {
		body["checked"] = b.Checked
	}
	typ := b.Type
	if typ == "" {
		typ = domain.BlockParagraph
	}
	return map[string]any{"object": "block", "type": string(typ), string(typ): body}
}
