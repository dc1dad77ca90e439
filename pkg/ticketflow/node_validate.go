package ticketflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/llm"
)

// validateNode assesses draft completeness. Primary path is the model;
// on failure it degrades to fixed rules. Conflict detection is always
// rule-based regardless of which path produced the rest of the report.
type validateNode struct {
	invoker llm.Invoker
}

// run validates the draft. The returned error is non-nil only when the
// model path degraded to the rule fallback; the report is usable either
// way and the caller logs the error as soft.
func (n validateNode) run(ctx context.Context, d Draft) (ValidationReport, error) {
	report, err := n.modelReport(ctx, d)
	if err != nil {
		report = ruleReport(d)
	}

	// The model never decides conflicts: pure data-equality check.
	report.Conflicts = detectConflicts(d)
	if len(report.Conflicts) > 0 {
		report.IsValid = false
	}
	return report, err
}

func (n validateNode) modelReport(ctx context.Context, d Draft) (ValidationReport, error) {
	raw, err := n.invoker.Invoke(ctx, llm.Request{
		System: validateSystemPrompt,
		Prompt: validatePrompt(d),
		Schema: validateSchema,
	})
	if err != nil {
		return ValidationReport{}, &NodeError{Node: "validate", Op: "invoke", Err: err}
	}

	var report ValidationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return ValidationReport{}, &NodeError{Node: "validate", Op: "decode", Err: err}
	}

	// The rule check is ground truth for the minimum bar; a model report
	// disagreeing on validity is discarded.
	if report.IsValid != d.MeetsMinimumBar() {
		return ValidationReport{}, &NodeError{Node: "validate", Op: "verify", Err: llm.ErrUnparseable}
	}

	if report.QualityScore < 0 {
		report.QualityScore = 0
	}
	if report.QualityScore > 100 {
		report.QualityScore = 100
	}
	return report, nil
}

func validatePrompt(d Draft) string {
	var b strings.Builder
	b.WriteString("Draft to assess:\n")
	snapshot, err := json.MarshalIndent(draftSnapshot(d), "", "  ")
	if err != nil {
		b.WriteString("(unavailable)")
	} else {
		b.Write(snapshot)
	}
	return b.String()
}

// requiredFields, in the fixed priority order questions follow.
var requiredFields = []string{"title", "problem", "acceptance_criteria"}

// ruleReport is the deterministic fallback: minimum viable bar plus a
// weighted field-completeness score. Title and problem weigh 30 each,
// acceptance criteria 30, solution 10.
func ruleReport(d Draft) ValidationReport {
	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Problem == "" {
		missing = append(missing, "problem")
	}
	if len(d.AcceptanceCriteria) == 0 {
		missing = append(missing, "acceptance_criteria")
	}

	score := 0
	if d.Title != "" {
		score += 30
	}
	if d.Problem != "" {
		score += 30
	}
	if len(d.AcceptanceCriteria) > 0 {
		score += 30
	}
	if d.Solution != "" {
		score += 10
	}

	return ValidationReport{
		IsValid:       len(missing) == 0,
		MissingFields: missing,
		QualityScore:  score,
	}
}
