package metadata

// Schema is the entity-level description of one doctype: its ordered fields
// plus entity attributes. Child tables referenced by Table fields are kept in
// Children, keyed by child doctype name.
type Schema struct {
	Name       string             `json:"name"`
	TitleField string             `json:"title_field,omitempty"`
	IsSingle   int                `json:"issingle,omitempty"`
	IsTable    int                `json:"istable,omitempty"`
	SortField  string             `json:"sort_field,omitempty"`
	SortOrder  string             `json:"sort_order,omitempty"`
	Fields     []Field            `json:"fields"`
	Children   map[string]*Schema `json:"children,omitempty"`
}

// GetField returns a pointer to the field with the given name, or nil.
func (s *Schema) GetField(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the schema declares a field with the given name.
func (s *Schema) HasField(name string) bool {
	return s.GetField(name) != nil
}

// DataFields returns the non-layout fields in schema order.
func (s *Schema) DataFields() []Field {
	fields := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind().IsLayout() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// ListFields returns the fields flagged for list display, in schema order.
func (s *Schema) ListFields() []Field {
	var fields []Field
	for _, f := range s.Fields {
		if f.InList() && !f.Kind().IsLayout() {
			fields = append(fields, f)
		}
	}
	return fields
}

// Child returns the schema of the child doctype behind a Table field, or nil.
func (s *Schema) Child(f Field) *Schema {
	if !f.Kind().IsMulti() || s.Children == nil {
		return nil
	}
	return s.Children[f.Options]
}

// Title returns the configured title field, defaulting to "name".
func (s *Schema) Title() string {
	if s.TitleField != "" {
		return s.TitleField
	}
	return "name"
}

// Clone returns a copy whose slices and maps may be mutated freely.
func (s *Schema) Clone() *Schema {
	c := *s
	c.Fields = append([]Field(nil), s.Fields...)
	if s.Children != nil {
		c.Children = make(map[string]*Schema, len(s.Children))
		for k, v := range s.Children {
			c.Children[k] = v.Clone()
		}
	}
	return &c
}
