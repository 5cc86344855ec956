package form

import (
	"testing"
	"time"

	"kairos-gateway/internal/metadata"
)

func studentSchema() *metadata.Schema {
	return &metadata.Schema{
		Name: "Student",
		Fields: []metadata.Field{
			{Name: "naming_series", Type: "Select", Options: "EDU-STU-.YYYY.-"},
			{Name: "first_name", Type: "Data", Label: "First Name", Reqd: 1},
			{Name: "last_name", Type: "Data", Label: "Last Name"},
			{Name: "col1", Type: "Column Break"},
			{Name: "joining_date", Type: "Date", Label: "Joining Date", Default: "Today"},
			{Name: "enabled", Type: "Check", Label: "Enabled", Default: "1"},
			{Name: "contact", Type: "Section Break", Label: "Contact"},
			{Name: "has_phone", Type: "Check", Label: "Has Phone"},
			{Name: "phone", Type: "Data", Label: "Phone", DependsOn: "eval:doc.has_phone", MandatoryDependsOn: "eval:doc.has_phone"},
			{Name: "siblings", Type: "Int", Label: "Siblings"},
			{Name: "empty", Type: "Section Break", Label: "Nothing here"},
		},
	}
}

func TestGroup_SectionsAndColumns(t *testing.T) {
	sections := Group(studentSchema())
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	first := sections[0]
	if len(first.Columns) != 2 {
		t.Fatalf("expected 2 columns in first section, got %d", len(first.Columns))
	}
	for _, f := range first.Columns[0].Fields {
		if f.Name == "naming_series" {
			t.Fatal("naming_series must never be rendered")
		}
	}
	if len(first.Columns[0].Fields) != 2 || len(first.Columns[1].Fields) != 2 {
		t.Fatalf("unexpected column sizes: %d, %d", len(first.Columns[0].Fields), len(first.Columns[1].Fields))
	}
	if sections[1].Label != "Contact" {
		t.Fatalf("expected Contact section, got %q", sections[1].Label)
	}
}

func TestInitialValues_Precedence(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	defer func() { now = time.Now }()

	values := InitialValues(studentSchema(), map[string]any{
		"first_name": "Asha",
		"name":       "EDU-STU-2026-00001",
	})
	if values["first_name"] != "Asha" {
		t.Fatalf("initial value should win, got %v", values["first_name"])
	}
	if values["joining_date"] != "2026-03-04" {
		t.Fatalf("expected Today default, got %v", values["joining_date"])
	}
	if values["enabled"] != 1 {
		t.Fatalf("expected check default 1, got %v", values["enabled"])
	}
	if values["last_name"] != "" {
		t.Fatalf("expected empty text default, got %v", values["last_name"])
	}
	if values["name"] != "EDU-STU-2026-00001" {
		t.Fatal("expected undeclared document keys to be kept")
	}
}

func TestForm_DependsOnToggleKeepsValue(t *testing.T) {
	f := Assemble(studentSchema(), nil, nil)

	if f.States()["phone"].Visible {
		t.Fatal("phone should start hidden")
	}
	if err := f.Set("has_phone", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !f.States()["phone"].Visible {
		t.Fatal("phone should be visible once has_phone is checked")
	}
	if err := f.Set("phone", "555-0100"); err != nil {
		t.Fatalf("set: %v", err)
	}

	_ = f.Set("has_phone", false)
	if f.States()["phone"].Visible {
		t.Fatal("phone should hide again")
	}
	if f.Payload()["phone"] != "555-0100" {
		t.Fatalf("hidden field must keep its value, got %v", f.Payload()["phone"])
	}

	_ = f.Set("has_phone", true)
	if f.Value("phone") != "555-0100" {
		t.Fatalf("re-shown field should show prior value, got %v", f.Value("phone"))
	}
}

func TestForm_Validate(t *testing.T) {
	f := Assemble(studentSchema(), nil, nil)

	errs := f.Validate()
	if len(errs) != 1 || errs[0].Field != "first_name" || errs[0].Rule != "required" {
		t.Fatalf("expected first_name required, got %+v", errs)
	}

	_ = f.Set("first_name", "Asha")
	_ = f.Set("has_phone", 1)
	errs = f.Validate()
	if len(errs) != 1 || errs[0].Field != "phone" {
		t.Fatalf("expected conditional phone requirement, got %+v", errs)
	}
}

func TestForm_SetNormalizesNumbers(t *testing.T) {
	f := Assemble(studentSchema(), nil, nil)
	_ = f.Set("siblings", "3")
	if f.Value("siblings") != int64(3) {
		t.Fatalf("expected int64(3), got %#v", f.Value("siblings"))
	}
	_ = f.Set("siblings", "")
	if f.Value("siblings") != nil {
		t.Fatalf("cleared number should be nil, got %#v", f.Value("siblings"))
	}
	if err := f.Set("nope", 1); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestForm_ViewOmitsHidden(t *testing.T) {
	f := Assemble(studentSchema(), nil, nil)
	for _, sec := range f.View() {
		for _, col := range sec.Columns {
			for _, d := range col.Fields {
				if d.Field == "phone" {
					t.Fatal("hidden phone must not be in the view")
				}
			}
		}
	}

	errs := f.Apply(map[string]any{"has_phone": 1, "bogus": "x"})
	if len(errs) != 1 || errs[0].Field != "bogus" {
		t.Fatalf("expected bogus to be reported, got %+v", errs)
	}
	found := false
	for _, sec := range f.View() {
		for _, col := range sec.Columns {
			for _, d := range col.Fields {
				if d.Field == "phone" {
					found = true
					if !d.Required {
						t.Fatal("phone should be required when shown")
					}
				}
			}
		}
	}
	if !found {
		t.Fatal("phone should be in the view once has_phone is set")
	}
}
