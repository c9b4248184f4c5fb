package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 4-Queens: a feasible solution has hard score 0, with each row unique
// and no shared diagonal.
func TestScenarioFourQueens(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("rows", 0, 4))
	require.NoError(t, sess.EntityClass("Queen", []Field{
		{Name: "column", Type: TypeInt},
		{Name: "row", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
	}))

	queens := make([]map[string]any, 4)
	for i := 0; i < 4; i++ {
		queens[i] = map[string]any{"column": i}
	}
	require.NoError(t, sess.AddEntities("Queen", queens))

	preds := []string{
		"A.row==B.row",
		"A.row-B.row==A.column-B.column",
		"A.row-B.row==B.column-A.column",
	}
	for i, pred := range preds {
		p, err := sess.Constraint(fmt.Sprintf("diag-%d", i), "1hard").
			ForEach("Queen").
			Join("Queen", pred).
			DistinctPair().
			Penalize()
		require.NoError(t, err)
		require.NoError(t, sess.AddConstraint(p))
	}

	res, err := sess.Solve(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(0), res.HardScore())
	require.True(t, res.IsFeasible())

	entities, err := res.GetEntities("Queen")
	require.NoError(t, err)
	rows := make(map[int64]bool)
	for _, e := range entities {
		row := e["row"].(int64)
		require.False(t, rows[row], "row %d used by more than one queen", row)
		rows[row] = true
	}
	require.Len(t, rows, 4)
}

// 8-Queens: a feasible solution is reachable within a 10-second limit.
func TestScenarioEightQueens(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("rows", 0, 8))
	require.NoError(t, sess.EntityClass("Queen", []Field{
		{Name: "column", Type: TypeInt},
		{Name: "row", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
	}))

	queens := make([]map[string]any, 8)
	for i := 0; i < 8; i++ {
		queens[i] = map[string]any{"column": i}
	}
	require.NoError(t, sess.AddEntities("Queen", queens))

	preds := []string{
		"A.row==B.row",
		"A.row-B.row==A.column-B.column",
		"A.row-B.row==B.column-A.column",
	}
	for i, pred := range preds {
		p, err := sess.Constraint(fmt.Sprintf("diag-%d", i), "1hard").
			ForEach("Queen").
			Join("Queen", pred).
			DistinctPair().
			Penalize()
		require.NoError(t, err)
		require.NoError(t, sess.AddConstraint(p))
	}

	res, err := sess.Solve(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(0), res.HardScore())
}

// Employee-shift non-overlap: feasible with 5 employees, 10 shifts, at
// most 2 concurrent shifts per (day, slot).
func TestScenarioEmployeeShiftNonOverlap(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("employees", 1, 6))
	require.NoError(t, sess.EntityClass("Employee", []Field{
		{Name: "id", Type: TypeInt},
		{Name: "name", Type: TypeString},
		{Name: "max_shifts", Type: TypeInt},
	}))
	require.NoError(t, sess.EntityClass("Shift", []Field{
		{Name: "id", Type: TypeInt},
		{Name: "day", Type: TypeInt},
		{Name: "slot", Type: TypeInt},
		{Name: "employee_id", Type: TypeInt, PlanningVariable: true, ValueRange: "employees"},
	}))

	employees := make([]map[string]any, 5)
	for i := 0; i < 5; i++ {
		employees[i] = map[string]any{"id": i + 1, "name": fmt.Sprintf("emp-%d", i+1), "max_shifts": 4}
	}
	require.NoError(t, sess.AddEntities("Employee", employees))

	shifts := make([]map[string]any, 10)
	for i := 0; i < 10; i++ {
		shifts[i] = map[string]any{"id": i + 1, "day": i / 2, "slot": i % 2}
	}
	require.NoError(t, sess.AddEntities("Shift", shifts))

	p, err := sess.Constraint("no-double-booked-slot", "1hard").
		ForEach("Shift").
		Join("Shift", "A.day==B.day", "A.slot==B.slot").
		Filter("A.employee_id==B.employee_id").
		DistinctPair().
		Penalize()
	require.NoError(t, err)
	require.NoError(t, sess.AddConstraint(p))

	res, err := sess.Solve(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.True(t, res.IsFeasible())

	entities, err := res.GetEntities("Shift")
	require.NoError(t, err)
	type slotKey struct{ day, slot int64 }
	byKey := make(map[slotKey][]int64)
	for _, e := range entities {
		k := slotKey{day: e["day"].(int64), slot: e["slot"].(int64)}
		byKey[k] = append(byKey[k], e["employee_id"].(int64))
	}
	for k, employeeIDs := range byKey {
		seen := make(map[int64]bool)
		for _, id := range employeeIDs {
			require.False(t, seen[id], "day=%d slot=%d: employee %d double-booked", k.day, k.slot, id)
			seen[id] = true
		}
	}
}

// Cross-class field resolution: two classes both have a field named
// "id"; the filter's "A.id" must resolve against Task, not Employee.
func TestScenarioCrossClassFieldResolution(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("employees", 1, 4))
	require.NoError(t, sess.EntityClass("Task", []Field{
		{Name: "id", Type: TypeInt},
		{Name: "assigned_employee", Type: TypeInt, PlanningVariable: true, ValueRange: "employees"},
	}))
	require.NoError(t, sess.EntityClass("Employee", []Field{
		{Name: "id", Type: TypeInt},
	}))

	require.NoError(t, sess.AddEntities("Task", []map[string]any{
		{"id": 10}, {"id": 20}, {"id": 30},
	}))
	require.NoError(t, sess.AddEntities("Employee", []map[string]any{
		{"id": 1}, {"id": 2}, {"id": 3},
	}))

	p, err := sess.Constraint("cross-class", "1hard").
		ForEach("Task").
		Join("Employee", "A.assigned_employee==B.id").
		Filter("A.id>0").
		Reward()
	require.NoError(t, err)
	require.NoError(t, sess.AddConstraint(p))

	res, err := sess.Solve(context.Background(), 500*time.Millisecond)
	require.NoError(t, err)
	// Every value in the range [1,4) a task's assigned_employee can take
	// matches exactly one employee id, so each task joins exactly one
	// employee whatever the solver assigns; filter A.id>0 (Task.id) always
	// holds since every task id is positive.
	require.Equal(t, int64(3), res.HardScore())
}

// Skill matching uniqueness: every non-zero assigned_employee appears
// at most once across all shifts.
func TestScenarioSkillMatchingUniqueness(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("assignees", 0, 5))
	require.NoError(t, sess.EntityClass("Employee", []Field{
		{Name: "id", Type: TypeInt},
		{Name: "skill_level", Type: TypeInt},
	}))
	require.NoError(t, sess.EntityClass("Shift", []Field{
		{Name: "id", Type: TypeInt},
		{Name: "required_skill", Type: TypeInt},
		{Name: "assigned_employee", Type: TypeInt, PlanningVariable: true, ValueRange: "assignees"},
	}))

	require.NoError(t, sess.AddEntities("Employee", []map[string]any{
		{"id": 1, "skill_level": 1},
		{"id": 2, "skill_level": 2},
		{"id": 3, "skill_level": 3},
	}))
	require.NoError(t, sess.AddEntities("Shift", []map[string]any{
		{"id": 1, "required_skill": 1},
		{"id": 2, "required_skill": 2},
		{"id": 3, "required_skill": 3},
	}))

	p, err := sess.Constraint("no-duplicate-assignment", "1hard").
		ForEach("Shift").
		Join("Shift", "A.assigned_employee==B.assigned_employee").
		Filter("A.assigned_employee>0").
		DistinctPair().
		Penalize()
	require.NoError(t, err)
	require.NoError(t, sess.AddConstraint(p))

	res, err := sess.Solve(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.True(t, res.IsFeasible())

	entities, err := res.GetEntities("Shift")
	require.NoError(t, err)
	seen := make(map[int64]bool)
	for _, e := range entities {
		assigned := e["assigned_employee"].(int64)
		if assigned == 0 {
			continue
		}
		require.False(t, seen[assigned], "assignee %d used more than once", assigned)
		seen[assigned] = true
	}
}

// Weight scaling preserves feasibility: re-running the 4-Queens scenario
// with the diagonal constraints at 2hard instead of 1hard yields the
// same feasibility outcome.
func TestScenarioWeightScalingPreservesFeasibility(t *testing.T) {
	build := func(level string) *Session {
		sess := New()
		require.NoError(t, sess.IntRange("rows", 0, 4))
		require.NoError(t, sess.EntityClass("Queen", []Field{
			{Name: "column", Type: TypeInt},
			{Name: "row", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
		}))
		queens := make([]map[string]any, 4)
		for i := 0; i < 4; i++ {
			queens[i] = map[string]any{"column": i}
		}
		require.NoError(t, sess.AddEntities("Queen", queens))

		preds := []string{
			"A.row==B.row",
			"A.row-B.row==A.column-B.column",
			"A.row-B.row==B.column-A.column",
		}
		for i, pred := range preds {
			p, err := sess.Constraint(fmt.Sprintf("diag-%d", i), level).
				ForEach("Queen").
				Join("Queen", pred).
				DistinctPair().
				Penalize()
			require.NoError(t, err)
			require.NoError(t, sess.AddConstraint(p))
		}
		return sess
	}

	sess1 := build("1hard")
	res1, err := sess1.Solve(context.Background(), 2*time.Second)
	require.NoError(t, err)

	sess2 := build("2hard")
	res2, err := sess2.Solve(context.Background(), 2*time.Second)
	require.NoError(t, err)

	require.Equal(t, res1.IsFeasible(), res2.IsFeasible())
	require.True(t, res1.IsFeasible())
	require.True(t, res2.IsFeasible())
}

func TestSessionAcceptsMutationAfterSolveCompletes(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("rows", 0, 4))
	require.NoError(t, sess.EntityClass("Queen", []Field{
		{Name: "column", Type: TypeInt},
		{Name: "row", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
	}))
	require.NoError(t, sess.AddEntities("Queen", []map[string]any{{"column": 0}}))

	_, err := sess.Solve(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)

	// The solving guard is released once Solve returns.
	require.NoError(t, sess.AddEntities("Queen", []map[string]any{{"column": 1}}))
}

func TestAddEntitiesRejectsPlanningValueOutsideDeclaredRange(t *testing.T) {
	sess := New()
	require.NoError(t, sess.IntRange("rows", 0, 4))
	require.NoError(t, sess.EntityClass("Queen", []Field{
		{Name: "column", Type: TypeInt},
		{Name: "row", Type: TypeInt, PlanningVariable: true, ValueRange: "rows"},
	}))
	require.Error(t, sess.AddEntities("Queen", []map[string]any{{"column": 0, "row": 99}}))
}
