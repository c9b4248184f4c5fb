package schema

import (
	"errors"
	"testing"

	"github.com/solvecore/solvecore"
)

func TestRegisterRangeRejectsDuplicateAndBadBounds(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterRange("rows", 0, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.RegisterRange("rows", 0, 8); err == nil {
		t.Fatal("expected duplicate range to fail")
	}
	var schemaErr *solvecore.SchemaError
	if err := r.RegisterRange("bad", 5, 5); !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for lo >= hi, got %v", err)
	}
}

func TestRegisterClassRejectsDuplicateFieldAndMultiplePlanning(t *testing.T) {
	r := NewRegistry()
	_ = r.RegisterRange("rows", 0, 4)

	_, err := r.RegisterClass("Queen", []FieldDef{
		{Name: "column", Type: TypeInt},
		{Name: "column", Type: TypeInt},
	})
	if err == nil {
		t.Fatal("expected duplicate field name to fail")
	}

	_, err = r.RegisterClass("TwoPlanning", []FieldDef{
		{Name: "a", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
		{Name: "b", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
	})
	if err == nil {
		t.Fatal("expected more than one planning field to fail")
	}

	_, err = r.RegisterClass("NoRange", []FieldDef{
		{Name: "a", Type: TypeInt, PlanningVariable: true},
	})
	if err == nil {
		t.Fatal("expected planning field without range to fail")
	}

	_, err = r.RegisterClass("BadRange", []FieldDef{
		{Name: "a", Type: TypeInt, PlanningVariable: true, ValueRange: "nope"},
	})
	if err == nil {
		t.Fatal("expected planning field with undeclared range to fail")
	}
}

func TestFieldResolutionIsPerClass(t *testing.T) {
	// Two classes sharing a field name at different positions must
	// resolve independently.
	r := NewRegistry()
	task, err := r.RegisterClass("Task", []FieldDef{
		{Name: "id", Type: TypeInt},
		{Name: "assigned_employee", Type: TypeInt},
	})
	if err != nil {
		t.Fatal(err)
	}
	employee, err := r.RegisterClass("Employee", []FieldDef{
		{Name: "skill", Type: TypeString},
		{Name: "id", Type: TypeInt},
	})
	if err != nil {
		t.Fatal(err)
	}

	if idx, _ := task.FieldIndex("id"); idx != 0 {
		t.Fatalf("Task.id expected at index 0, got %d", idx)
	}
	if idx, _ := employee.FieldIndex("id"); idx != 1 {
		t.Fatalf("Employee.id expected at index 1, got %d", idx)
	}
	if task.IdentifierFieldIndex() != 0 || employee.IdentifierFieldIndex() != 1 {
		t.Fatal("identifier field index not resolved independently per class")
	}
}

func TestRegisterClassDuplicateName(t *testing.T) {
	r := NewRegistry()
	if _, err := r.RegisterClass("Queen", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterClass("Queen", nil); err == nil {
		t.Fatal("expected duplicate class name to fail")
	}
}

func TestClassNamesPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	_, _ = r.RegisterClass("Second", nil)
	_, _ = r.RegisterClass("First", nil)
	names := r.ClassNames()
	if len(names) != 2 || names[0] != "Second" || names[1] != "First" {
		t.Fatalf("expected registration order [Second First], got %v", names)
	}
}
