// Command constraintsolver runs the built-in demo scenarios for the
// constraint-satisfaction / local-search engine: N-Queens and a small
// employee-shift scheduling problem. It is a flag-based CLI with plain
// fmt/log output and no third-party CLI framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/solvecore/solvecore/session"
)

func main() {
	var (
		demo      string
		queens    int
		timeLimit time.Duration
	)
	flag.StringVar(&demo, "demo", "queens", "demo to run: queens or shifts")
	flag.IntVar(&queens, "n", 8, "board size for the queens demo")
	flag.DurationVar(&timeLimit, "time-limit", 10*time.Second, "solver time limit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs a demo of the constraint-satisfaction / local-search engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -demo queens -n 8\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -demo shifts\n", os.Args[0])
	}
	flag.Parse()

	switch demo {
	case "queens":
		if err := runQueens(queens, timeLimit); err != nil {
			log.Fatalf("queens demo failed: %v", err)
		}
	case "shifts":
		if err := runShifts(timeLimit); err != nil {
			log.Fatalf("shifts demo failed: %v", err)
		}
	default:
		log.Fatalf("unknown demo %q (want \"queens\" or \"shifts\")", demo)
	}
}

// runQueens builds the N-Queens scenario: one Queen class with a fixed
// column and a planning row, and the three "no shared row or diagonal"
// hard constraints.
func runQueens(n int, timeLimit time.Duration) error {
	sess := session.New()

	if err := sess.IntRange("rows", 0, int64(n)); err != nil {
		return err
	}
	if err := sess.EntityClass("Queen", []session.Field{
		{Name: "column", Type: session.TypeInt},
		{Name: "row", Type: session.TypeInt, PlanningVariable: true, ValueRange: "rows"},
	}); err != nil {
		return err
	}

	queens := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		queens[i] = map[string]any{"column": i}
	}
	if err := sess.AddEntities("Queen", queens); err != nil {
		return err
	}

	diagonalPreds := []string{
		"A.row==B.row",
		"A.row-B.row==A.column-B.column",
		"A.row-B.row==B.column-A.column",
	}
	for i, pred := range diagonalPreds {
		p, err := sess.Constraint(fmt.Sprintf("no-shared-row-or-diagonal-%d", i), "1hard").
			ForEach("Queen").
			Join("Queen", pred).
			DistinctPair().
			Penalize()
		if err != nil {
			return err
		}
		if err := sess.AddConstraint(p); err != nil {
			return err
		}
	}

	res, err := sess.Solve(context.Background(), timeLimit)
	if err != nil {
		return err
	}

	fmt.Printf("=== %d-Queens ===\n", n)
	fmt.Println(res.Summary())
	fmt.Println(res.Table("Queen"))
	return nil
}

// runShifts builds the employee-shift non-overlap scenario: shifts pick
// an employee, and no two shifts sharing a (day, slot) may pick the
// same employee.
func runShifts(timeLimit time.Duration) error {
	sess := session.New()

	if err := sess.IntRange("employees", 1, 6); err != nil {
		return err
	}
	if err := sess.EntityClass("Shift", []session.Field{
		{Name: "id", Type: session.TypeInt},
		{Name: "day", Type: session.TypeInt},
		{Name: "slot", Type: session.TypeInt},
		{Name: "employee_id", Type: session.TypeInt, PlanningVariable: true, ValueRange: "employees"},
	}); err != nil {
		return err
	}

	shifts := make([]map[string]any, 10)
	for i := 0; i < 10; i++ {
		shifts[i] = map[string]any{
			"id":   i + 1,
			"day":  i / 2,
			"slot": i % 2,
		}
	}
	if err := sess.AddEntities("Shift", shifts); err != nil {
		return err
	}

	p, err := sess.Constraint("no-double-booked-slot", "1hard").
		ForEach("Shift").
		Join("Shift", "A.day==B.day", "A.slot==B.slot").
		Filter("A.employee_id==B.employee_id").
		DistinctPair().
		Penalize()
	if err != nil {
		return err
	}
	if err := sess.AddConstraint(p); err != nil {
		return err
	}

	res, err := sess.Solve(context.Background(), timeLimit)
	if err != nil {
		return err
	}

	fmt.Println("=== Employee Shift Scheduling ===")
	fmt.Println(res.Summary())
	fmt.Println(res.Table("Shift"))
	return nil
}
