// Package result holds the read-only view of a completed solve: a
// snapshot of entities, plus scalar statistics (score, step counts,
// duration). Table() renders markdown tables per entity class; Summary()
// gives a quick colorized feasible/infeasible banner.
package result

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/entitystore"
	"github.com/solvecore/solvecore/internal/schema"
)

// Result is the frozen, read-only view of a completed solve.
type Result struct {
	RunID          string
	Score          solvecore.Score
	Steps          int64
	MovesEvaluated int64
	Duration       time.Duration

	registry *schema.Registry
	store    *entitystore.Store
}

// New materializes a Result from the final state of a store and the
// solver's statistics. The run id is a random uuid used purely for
// log/telemetry correlation; it has no bearing on solve semantics.
func New(registry *schema.Registry, store *entitystore.Store, score solvecore.Score, steps, moves int64, duration time.Duration) *Result {
	return &Result{
		RunID:          uuid.NewString(),
		Score:          score,
		Steps:          steps,
		MovesEvaluated: moves,
		Duration:       duration,
		registry:       registry,
		store:          store,
	}
}

// HardScore returns the hard component of the final score.
func (r *Result) HardScore() int64 { return r.Score.Hard }

// SoftScore returns the soft component of the final score.
func (r *Result) SoftScore() int64 { return r.Score.Soft }

// IsFeasible reports whether the hard score is exactly zero.
func (r *Result) IsFeasible() bool { return r.Score.Feasible() }

// DurationMS returns the solve duration in whole milliseconds.
func (r *Result) DurationMS() int64 { return r.Duration.Milliseconds() }

// GetEntities returns every instance of the given class as a
// field-name-keyed record, reflecting the best-so-far solution.
func (r *Result) GetEntities(class string) ([]map[string]solvecore.Value, error) {
	def, ok := r.registry.Class(class)
	if !ok {
		return nil, &solvecore.BindingError{Msg: fmt.Sprintf("unknown class %q", class)}
	}
	records := r.store.Iterate(class)
	out := make([]map[string]solvecore.Value, 0, len(records))
	for _, rec := range records {
		m := make(map[string]solvecore.Value, len(def.Fields))
		for i, f := range def.Fields {
			m[f.Name] = rec.Values[i]
		}
		out = append(out, m)
	}
	return out, nil
}

// Table renders every instance of a class as a markdown table.
func (r *Result) Table(class string) string {
	def, ok := r.registry.Class(class)
	if !ok {
		return fmt.Sprintf("_unknown class %q_", class)
	}
	records := r.store.Iterate(class)
	if len(records) == 0 {
		return "_no entities_"
	}

	headers := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		headers[i] = f.Name
	}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	var sb strings.Builder
	table := tablewriter.NewTable(&sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, rec := range records {
		row := make([]string, len(rec.Values))
		for i, v := range rec.Values {
			row[i] = fmt.Sprintf("%v", v)
		}
		table.Append(row)
	}
	table.Render()
	return sb.String()
}

// Summary renders a one-line colorized banner: green for feasible,
// red for infeasible, followed by the score and human-readable
// statistics.
func (r *Result) Summary() string {
	banner := color.New(color.FgGreen, color.Bold).Sprint("FEASIBLE")
	if !r.IsFeasible() {
		banner = color.New(color.FgRed, color.Bold).Sprint("INFEASIBLE")
	}
	return fmt.Sprintf(
		"%s  score=%s  steps=%s  moves_evaluated=%s  duration=%s",
		banner,
		r.Score.String(),
		humanize.Comma(r.Steps),
		humanize.Comma(r.MovesEvaluated),
		r.Duration.Round(time.Millisecond),
	)
}
