package ticketflow

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// decideInput carries everything the decision node consumes. Pure data:
// the node performs no I/O and no model calls.
type decideInput struct {
	Draft  Draft
	Report ValidationReport

	// ReaskCount is owned by the engine: consecutive ASK rounds that
	// targeted the same missing-field set.
	ReaskCount int

	// MaxReasks caps ReaskCount before the decision falls through to
	// PREVIEW.
	MaxReasks int

	// MaxQuestions caps questions per ASK emission.
	MaxQuestions int

	// Confirmed is true when an approval exists for the draft's current
	// version.
	Confirmed bool
}

// decide chooses the next action. Precedence:
//  1. conflicts exist: ASK, conflict questions first
//  2. missing required fields and reask budget left: ASK, fixed field
//     priority (title, problem, acceptance criteria, then others)
//  3. reask budget exhausted but draft meets the minimum bar: PREVIEW,
//     proceed with partial information rather than looping forever
//  4. meets bar, approval already on record: READY_TO_CREATE
//  5. meets bar, no approval yet: PREVIEW
func decide(in decideInput) DecisionResult {
	if in.MaxQuestions <= 0 {
		in.MaxQuestions = 3
	}

	if len(in.Report.Conflicts) > 0 {
		return DecisionResult{
			Action:    ActionAsk,
			Questions: buildQuestions(in.Report, in.MaxQuestions),
			Reason:    fmt.Sprintf("%d unresolved conflict(s)", len(in.Report.Conflicts)),
		}
	}

	if len(in.Report.MissingFields) > 0 && in.ReaskCount < in.MaxReasks {
		return DecisionResult{
			Action:    ActionAsk,
			Questions: buildQuestions(in.Report, in.MaxQuestions),
			Reason:    "missing fields: " + strings.Join(in.Report.MissingFields, ", "),
		}
	}

	if in.ReaskCount >= in.MaxReasks && in.Draft.MeetsMinimumBar() {
		return DecisionResult{
			Action: ActionPreview,
			Reason: fmt.Sprintf("re-ask budget exhausted after %d round(s), proceeding with partial draft", in.ReaskCount),
		}
	}

	if in.Draft.MeetsMinimumBar() {
		if in.Confirmed {
			return DecisionResult{
				Action: ActionReadyToCreate,
				Reason: "draft approved at current version",
			}
		}
		return DecisionResult{
			Action: ActionPreview,
			Reason: "draft meets minimum bar, awaiting review",
		}
	}

	// Below the bar with no budget left: ask anyway, there is nothing
	// worth previewing.
	return DecisionResult{
		Action:    ActionAsk,
		Questions: buildQuestions(in.Report, in.MaxQuestions),
		Reason:    "draft below minimum bar",
	}
}

// buildQuestions orders questions: conflicts first, then missing fields
// by fixed priority, capped at max.
func buildQuestions(r ValidationReport, max int) []Question {
	var questions []Question

	for _, c := range r.Conflicts {
		questions = append(questions, Question{
			ID:    newQuestionID(),
			Text:  fmt.Sprintf("Conflicting values for %q: %s. Which should the ticket use?", c.Key, strings.Join(c.Values, " vs ")),
			Field: "constraints:" + c.Key,
		})
	}

	for _, field := range orderByPriority(r.MissingFields) {
		questions = append(questions, Question{
			ID:    newQuestionID(),
			Text:  questionFor(field),
			Field: field,
		})
	}

	if len(questions) > max {
		questions = questions[:max]
	}
	return questions
}

// orderByPriority sorts fields by the fixed priority, preserving input
// order among unranked fields.
func orderByPriority(fields []string) []string {
	ranked := make([]string, 0, len(fields))
	for _, want := range requiredFields {
		if containsString(fields, want) {
			ranked = append(ranked, want)
		}
	}
	for _, f := range fields {
		if !containsString(ranked, f) {
			ranked = append(ranked, f)
		}
	}
	return ranked
}

func questionFor(field string) string {
	switch field {
	case "title":
		return "What should the ticket be called? A short imperative title works best."
	case "problem":
		return "What problem is this solving? Describe the current pain or gap."
	case "acceptance_criteria":
		return "How will we know this is done? List at least one acceptance criterion."
	case "solution":
		return "Is there a proposed approach, or should the assignee decide?"
	default:
		return fmt.Sprintf("Can you provide the %s for this ticket?", strings.ReplaceAll(field, "_", " "))
	}
}

func newQuestionID() string {
	id, err := gonanoid.New()
	if err != nil {
		return "q-unknown"
	}
	return id
}
