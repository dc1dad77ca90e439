// Package ticketflow implements a bounded, resumable, human-in-the-loop
// workflow engine that turns team conversation into reviewed ticket
// drafts.
//
// One inbound message is one Advance call. The engine acquires the
// session lock, routes the message (TICKET, REVIEW, DISCUSSION),
// and for the ticket flow runs extraction, validation, and decision
// nodes in sequence, checkpointing after every node. A decision to ask
// or preview suspends the session durably; Resume continues it with
// the human's response, surviving process restarts in between. Approve
// records the human verdict in the approval ledger and performs the
// terminal create against the issue tracker.
//
// Nodes are pure functions of (state snapshot, input); the engine owns
// all mutation and persistence. Drafts only ever grow: scalars are
// set-if-absent, lists append, and a conflicting re-derivation is
// surfaced as a conflict rather than applied as an overwrite.
//
// Basic usage:
//
//	store, _ := checkpoint.NewSQLiteStore("ticketflow.db")
//	ldg, _ := ledger.NewSQLiteLedger("ticketflow.db")
//	invoker := llm.WithRetry(llm.NewClaudeInvoker(client))
//	engine := ticketflow.NewEngine(invoker, store, ldg, config.Default(),
//		ticketflow.WithTracker(trackerClient),
//	)
//
//	result, err := engine.Advance(ctx, inbound)
//	if result.Kind == ticketflow.ResultSuspended {
//		// deliver result.Suspension.Questions, resume later
//	}
package ticketflow
