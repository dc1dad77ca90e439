package ticketflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeDraft() Draft {
	d := Draft{}
	d, _ = d.Apply(DraftPatch{
		Title:              "Fix login timeout",
		Problem:            "Users get logged out after 30s",
		AcceptanceCriteria: []string{"login session lasts 24h"},
	})
	return d
}

func TestDecide_CompleteDraftPreviews(t *testing.T) {
	d := completeDraft()
	result := decide(decideInput{
		Draft:        d,
		Report:       ValidationReport{IsValid: true, QualityScore: 90},
		MaxReasks:    2,
		MaxQuestions: 3,
	})
	assert.Equal(t, ActionPreview, result.Action)
	assert.Empty(t, result.Questions)
}

func TestDecide_EmptyDraftAsksWithPriority(t *testing.T) {
	report := ValidationReport{
		IsValid:       false,
		MissingFields: []string{"acceptance_criteria", "problem", "title"},
	}
	result := decide(decideInput{
		Draft:        Draft{},
		Report:       report,
		MaxReasks:    2,
		MaxQuestions: 3,
	})

	require.Equal(t, ActionAsk, result.Action)
	require.Len(t, result.Questions, 3)
	// Fixed field priority regardless of report order.
	assert.Equal(t, "title", result.Questions[0].Field)
	assert.Equal(t, "problem", result.Questions[1].Field)
	assert.Equal(t, "acceptance_criteria", result.Questions[2].Field)
}

func TestDecide_ConflictsBeforeMissingFields(t *testing.T) {
	report := ValidationReport{
		IsValid:       false,
		MissingFields: []string{"title"},
		Conflicts:     []Conflict{{Key: "auth_method", Values: []string{"OAuth", "SAML"}}},
	}
	result := decide(decideInput{
		Draft:        Draft{},
		Report:       report,
		MaxReasks:    2,
		MaxQuestions: 3,
	})

	require.Equal(t, ActionAsk, result.Action)
	require.NotEmpty(t, result.Questions)
	assert.Equal(t, "constraints:auth_method", result.Questions[0].Field)
	assert.Contains(t, result.Questions[0].Text, "auth_method")
}

func TestDecide_QuestionCap(t *testing.T) {
	report := ValidationReport{
		IsValid:       false,
		MissingFields: []string{"title", "problem", "acceptance_criteria", "solution", "owner"},
	}
	result := decide(decideInput{
		Draft:        Draft{},
		Report:       report,
		MaxReasks:    2,
		MaxQuestions: 3,
	})
	assert.Len(t, result.Questions, 3)
}

func TestDecide_ReaskBudgetFallsThroughToPreview(t *testing.T) {
	d := completeDraft()
	report := ValidationReport{IsValid: false, MissingFields: []string{"solution"}}

	// Budget left: ask again.
	result := decide(decideInput{Draft: d, Report: report, ReaskCount: 1, MaxReasks: 2, MaxQuestions: 3})
	assert.Equal(t, ActionAsk, result.Action)

	// Budget exhausted: proceed with partial information.
	result = decide(decideInput{Draft: d, Report: report, ReaskCount: 2, MaxReasks: 2, MaxQuestions: 3})
	assert.Equal(t, ActionPreview, result.Action)
}

func TestDecide_BelowBarKeepsAskingWhenBudgetExhausted(t *testing.T) {
	report := ValidationReport{IsValid: false, MissingFields: []string{"title", "problem", "acceptance_criteria"}}
	result := decide(decideInput{Draft: Draft{}, Report: report, ReaskCount: 2, MaxReasks: 2, MaxQuestions: 3})
	assert.Equal(t, ActionAsk, result.Action)
}

func TestDecide_ConfirmedDraftIsReadyToCreate(t *testing.T) {
	d := completeDraft()
	result := decide(decideInput{
		Draft:        d,
		Report:       ValidationReport{IsValid: true, QualityScore: 90},
		MaxReasks:    2,
		MaxQuestions: 3,
		Confirmed:    true,
	})
	assert.Equal(t, ActionReadyToCreate, result.Action)
}

func TestDecide_ConflictBlocksReadyToCreate(t *testing.T) {
	d := completeDraft()
	report := ValidationReport{
		IsValid:   false,
		Conflicts: []Conflict{{Key: "auth_method", Values: []string{"OAuth", "SAML"}}},
	}
	result := decide(decideInput{Draft: d, Report: report, MaxReasks: 2, MaxQuestions: 3, Confirmed: true})
	assert.Equal(t, ActionAsk, result.Action)
}
