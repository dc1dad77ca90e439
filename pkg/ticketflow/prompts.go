package ticketflow

import "encoding/json"

// Prompt templates and response schemas for the model-backed nodes.
// Persona content stays out of the engine: callers may prepend their
// own persona text via the router's hint, these are the structural
// instructions only.

const routerSystemPrompt = `You classify a team-chat message into exactly one intent:
- TICKET: the author wants a work item drafted or updated.
- REVIEW: the author wants analysis or critique of existing work, not a ticket.
- DISCUSSION: anything else; casual conversation, questions, banter.

Weigh the message against the recent context. Be conservative: prefer
DISCUSSION when the signal is weak.`

var routerSchema = json.RawMessage(`{
	"type": "object",
	"required": ["intent", "confidence"],
	"properties": {
		"intent": {"type": "string", "enum": ["TICKET", "REVIEW", "DISCUSSION"]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"persona_hint": {"type": "string"},
		"topic": {"type": "string"},
		"reasons": {"type": "array", "items": {"type": "string"}}
	}
}`)

const extractSystemPrompt = `You extract ticket-draft information from one team-chat message.
Emit ONLY information the message actually contains. Rules:
- Never restate fields already present in the current draft.
- Scalars (title, problem, solution): propose only if the draft's field is empty, unless the message clearly contradicts it.
- Lists (acceptance_criteria, open_questions, dependencies, risks): emit only new entries.
- Constraints: key/value facts, e.g. {"key": "auth_method", "value": "OAuth"}.
Emit an empty object if the message adds nothing.`

var extractSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"problem": {"type": "string"},
		"solution": {"type": "string"},
		"acceptance_criteria": {"type": "array", "items": {"type": "string"}},
		"constraints": {"type": "array", "items": {
			"type": "object",
			"required": ["key", "value"],
			"properties": {"key": {"type": "string"}, "value": {"type": "string"}}
		}},
		"open_questions": {"type": "array", "items": {"type": "string"}},
		"dependencies": {"type": "array", "items": {"type": "string"}},
		"risks": {"type": "array", "items": {"type": "string"}}
	}
}`)

const validateSystemPrompt = `You assess a ticket draft for completeness and quality.
Minimum viable: non-empty title, non-empty problem statement, at least
one acceptance criterion. Report what is missing, suggest concrete
improvements, and score overall quality 0-100. Do not report
constraint conflicts; those are computed separately.`

var validateSchema = json.RawMessage(`{
	"type": "object",
	"required": ["is_valid", "quality_score"],
	"properties": {
		"is_valid": {"type": "boolean"},
		"missing_fields": {"type": "array", "items": {"type": "string"}},
		"suggestions": {"type": "array", "items": {"type": "string"}},
		"quality_score": {"type": "integer", "minimum": 0, "maximum": 100}
	}
}`)

const reviewSystemPrompt = `You review the work described in a team-chat conversation.
Give a short critical analysis: what is risky, what alternatives were
not considered, what questions remain open. Do NOT draft or propose a
ticket; this is analysis only.`

var reviewSchema = json.RawMessage(`{
	"type": "object",
	"required": ["summary"],
	"properties": {
		"summary": {"type": "string"},
		"risks": {"type": "array", "items": {"type": "string"}},
		"alternatives": {"type": "array", "items": {"type": "string"}},
		"open_questions": {"type": "array", "items": {"type": "string"}}
	}
}`)

const discussSystemPrompt = `You are a helpful teammate in a work chat. Reply to the message
in one or two short sentences. No drafting, no analysis documents.`

var discussSchema = json.RawMessage(`{
	"type": "object",
	"required": ["reply"],
	"properties": {
		"reply": {"type": "string"}
	}
}`)
