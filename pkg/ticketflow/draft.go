package ticketflow

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ConstraintStatus tracks the lifecycle of a recorded constraint.
type ConstraintStatus string

// Constraint status constants.
const (
	ConstraintActive      ConstraintStatus = "active"
	ConstraintResolved    ConstraintStatus = "resolved"
	ConstraintConflicting ConstraintStatus = "conflicting"
)

// Constraint is a key/value fact recorded from the conversation.
// Two constraints sharing a key with differing values are a conflict.
type Constraint struct {
	Key      string           `json:"key"`
	Value    string           `json:"value"`
	Status   ConstraintStatus `json:"status"`
	Evidence string           `json:"evidence,omitempty"`
}

// Item is a list entry (acceptance criterion, risk, dependency, open
// question) with a link back to the message that produced it.
type Item struct {
	Text     string `json:"text"`
	Evidence string `json:"evidence,omitempty"`
}

// Draft is the ticket artifact under incremental construction.
//
// Mutation happens exclusively through Apply: scalars are set-if-absent,
// lists only grow. Version is a fingerprint of the approval-relevant
// fields (title, problem, acceptance criteria) and is recomputed on
// every mutation.
type Draft struct {
	Title    string `json:"title,omitempty"`
	Problem  string `json:"problem,omitempty"`
	Solution string `json:"solution,omitempty"`

	AcceptanceCriteria []Item       `json:"acceptance_criteria,omitempty"`
	Constraints        []Constraint `json:"constraints,omitempty"`
	OpenQuestions      []Item       `json:"open_questions,omitempty"`
	Dependencies       []Item       `json:"dependencies,omitempty"`
	Risks              []Item       `json:"risks,omitempty"`

	// Evidence collects every message reference that contributed to the
	// draft, in arrival order.
	Evidence []string `json:"evidence,omitempty"`

	Version string `json:"version,omitempty"`
}

// DraftPatch is the only way new information enters a Draft.
// Scalars are proposals (applied only if the field is unset); list
// entries are appended. Evidence is the reference to the originating
// message and is attached to every value the patch contributes.
type DraftPatch struct {
	Title    string `json:"title,omitempty"`
	Problem  string `json:"problem,omitempty"`
	Solution string `json:"solution,omitempty"`

	AcceptanceCriteria []string          `json:"acceptance_criteria,omitempty"`
	Constraints        []ConstraintPatch `json:"constraints,omitempty"`
	OpenQuestions      []string          `json:"open_questions,omitempty"`
	Dependencies       []string          `json:"dependencies,omitempty"`
	Risks              []string          `json:"risks,omitempty"`

	Evidence string `json:"evidence,omitempty"`
}

// ConstraintPatch proposes a constraint observation.
type ConstraintPatch struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// IsEmpty reports whether the patch carries no information.
func (p DraftPatch) IsEmpty() bool {
	return p.Title == "" && p.Problem == "" && p.Solution == "" &&
		len(p.AcceptanceCriteria) == 0 && len(p.Constraints) == 0 &&
		len(p.OpenQuestions) == 0 && len(p.Dependencies) == 0 &&
		len(p.Risks) == 0
}

// OpType classifies a single draft mutation for the operation log.
type OpType string

// Operation types. Replacements never happen silently: a conflicting
// scalar proposal is recorded as OpConflict and surfaced as a
// conflicting constraint instead of overwriting the field.
const (
	OpSet      OpType = "set"
	OpAppend   OpType = "append"
	OpConflict OpType = "conflict"
)

// Op records one mutation produced by Apply.
type Op struct {
	Type     OpType `json:"type"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Evidence string `json:"evidence,omitempty"`
}

// Apply merges a patch into the draft and returns the new draft plus
// the operation log. The receiver is not modified.
//
// Merge semantics per field:
//   - scalars (title, problem, solution): set-if-absent; a differing
//     proposal for a set field becomes a conflicting constraint keyed
//     "field:<name>".
//   - lists: append, deduplicated by exact text.
//   - constraints: append; a differing value for an existing key is
//     appended with status conflicting and the existing entry is marked
//     conflicting too.
func (d Draft) Apply(p DraftPatch) (Draft, []Op) {
	out := d.clone()
	var ops []Op

	applyScalar := func(field, current, proposed string, set func(string)) {
		if proposed == "" {
			return
		}
		if current == "" {
			set(proposed)
			ops = append(ops, Op{Type: OpSet, Field: field, Value: proposed, Evidence: p.Evidence})
			return
		}
		if current == proposed {
			return
		}
		// Conflicting re-derivation of a set scalar. Never overwrite.
		out.Constraints = append(out.Constraints, Constraint{
			Key:      "field:" + field,
			Value:    proposed,
			Status:   ConstraintConflicting,
			Evidence: p.Evidence,
		})
		ops = append(ops, Op{Type: OpConflict, Field: field, Value: proposed, Evidence: p.Evidence})
	}

	applyScalar("title", out.Title, p.Title, func(v string) { out.Title = v })
	applyScalar("problem", out.Problem, p.Problem, func(v string) { out.Problem = v })
	applyScalar("solution", out.Solution, p.Solution, func(v string) { out.Solution = v })

	appendList := func(field string, dst *[]Item, entries []string) {
		for _, text := range entries {
			if text == "" || containsItem(*dst, text) {
				continue
			}
			*dst = append(*dst, Item{Text: text, Evidence: p.Evidence})
			ops = append(ops, Op{Type: OpAppend, Field: field, Value: text, Evidence: p.Evidence})
		}
	}

	appendList("acceptance_criteria", &out.AcceptanceCriteria, p.AcceptanceCriteria)
	appendList("open_questions", &out.OpenQuestions, p.OpenQuestions)
	appendList("dependencies", &out.Dependencies, p.Dependencies)
	appendList("risks", &out.Risks, p.Risks)

	for _, cp := range p.Constraints {
		if cp.Key == "" || cp.Value == "" {
			continue
		}
		status := ConstraintActive
		duplicate := false
		for i := range out.Constraints {
			if out.Constraints[i].Key != cp.Key {
				continue
			}
			if out.Constraints[i].Value == cp.Value {
				duplicate = true
				break
			}
			out.Constraints[i].Status = ConstraintConflicting
			status = ConstraintConflicting
		}
		if duplicate {
			continue
		}
		out.Constraints = append(out.Constraints, Constraint{
			Key:      cp.Key,
			Value:    cp.Value,
			Status:   status,
			Evidence: p.Evidence,
		})
		opType := OpAppend
		if status == ConstraintConflicting {
			opType = OpConflict
		}
		ops = append(ops, Op{Type: opType, Field: "constraints:" + cp.Key, Value: cp.Value, Evidence: p.Evidence})
	}

	if len(ops) > 0 && p.Evidence != "" && !containsString(out.Evidence, p.Evidence) {
		out.Evidence = append(out.Evidence, p.Evidence)
	}

	out.Version = out.computeVersion()
	return out, ops
}

// MeetsMinimumBar reports whether the draft satisfies the minimum
// viable ticket: non-empty title, non-empty problem statement, and at
// least one acceptance criterion.
func (d Draft) MeetsMinimumBar() bool {
	return d.Title != "" && d.Problem != "" && len(d.AcceptanceCriteria) > 0
}

// computeVersion fingerprints the approval-relevant content. Changes to
// risks, dependencies, constraints, or evidence do not alter it.
func (d Draft) computeVersion() string {
	h := sha256.New()
	h.Write([]byte(d.Title))
	h.Write([]byte{0})
	h.Write([]byte(d.Problem))
	for _, ac := range d.AcceptanceCriteria {
		h.Write([]byte{0})
		h.Write([]byte(ac.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// clone returns a deep copy so Apply never aliases the receiver's slices.
func (d Draft) clone() Draft {
	out := d
	out.AcceptanceCriteria = append([]Item(nil), d.AcceptanceCriteria...)
	out.Constraints = append([]Constraint(nil), d.Constraints...)
	out.OpenQuestions = append([]Item(nil), d.OpenQuestions...)
	out.Dependencies = append([]Item(nil), d.Dependencies...)
	out.Risks = append([]Item(nil), d.Risks...)
	out.Evidence = append([]string(nil), d.Evidence...)
	return out
}

// Summary renders a short human-readable description for previews.
func (d Draft) Summary() string {
	var b strings.Builder
	b.WriteString(d.Title)
	if d.Problem != "" {
		b.WriteString(": ")
		b.WriteString(d.Problem)
	}
	return b.String()
}

func containsItem(items []Item, text string) bool {
	for _, it := range items {
		if it.Text == text {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
