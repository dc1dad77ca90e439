package ledger_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/ledger"
)

// ledgerFactories lets every contract test run against both
// implementations.
func ledgerFactories(t *testing.T) map[string]func(t *testing.T) ledger.Ledger {
	t.Helper()
	return map[string]func(t *testing.T) ledger.Ledger{
		"memory": func(t *testing.T) ledger.Ledger {
			l := ledger.NewMemoryLedger()
			t.Cleanup(func() { l.Close() })
			return l
		},
		"sqlite": func(t *testing.T) ledger.Ledger {
			l, err := ledger.NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
			require.NoError(t, err)
			t.Cleanup(func() { l.Close() })
			return l
		},
	}
}

func TestLedger_FirstWriterWins(t *testing.T) {
	for name, factory := range ledgerFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := factory(t)

			first, err := l.RecordApproval(ctx, "s-1", "hash-a", "alice")
			require.NoError(t, err)
			assert.Equal(t, ledger.OutcomeAccepted, first.Outcome)
			assert.Equal(t, "alice", first.Record.Approver)
			assert.NotEmpty(t, first.Record.ID)

			// Second writer loses; the original record is returned
			// unchanged, never merged.
			second, err := l.RecordApproval(ctx, "s-1", "hash-a", "bob")
			require.NoError(t, err)
			assert.Equal(t, ledger.OutcomeAlreadyRecorded, second.Outcome)
			assert.Equal(t, first.Record.ID, second.Record.ID)
			assert.Equal(t, "alice", second.Record.Approver)
		})
	}
}

func TestLedger_IdempotentForSameApprover(t *testing.T) {
	for name, factory := range ledgerFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := factory(t)

			first, err := l.RecordApproval(ctx, "s-1", "hash-a", "alice")
			require.NoError(t, err)

			repeat, err := l.RecordApproval(ctx, "s-1", "hash-a", "alice")
			require.NoError(t, err)
			assert.Equal(t, ledger.OutcomeAlreadyRecorded, repeat.Outcome)
			assert.Equal(t, first.Record, repeat.Record)
		})
	}
}

func TestLedger_DifferentHashesAreIndependent(t *testing.T) {
	for name, factory := range ledgerFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := factory(t)

			a, err := l.RecordApproval(ctx, "s-1", "hash-a", "alice")
			require.NoError(t, err)
			b, err := l.RecordApproval(ctx, "s-1", "hash-b", "alice")
			require.NoError(t, err)

			assert.Equal(t, ledger.OutcomeAccepted, a.Outcome)
			assert.Equal(t, ledger.OutcomeAccepted, b.Outcome)
		})
	}
}

func TestLedger_RejectionUsesSameKey(t *testing.T) {
	for name, factory := range ledgerFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := factory(t)

			rej, err := l.RecordRejection(ctx, "s-1", "hash-a", "alice")
			require.NoError(t, err)
			assert.Equal(t, ledger.StatusRejected, rej.Record.Status)

			// A later approval for the same version does not overwrite
			// the verdict.
			app, err := l.RecordApproval(ctx, "s-1", "hash-a", "bob")
			require.NoError(t, err)
			assert.Equal(t, ledger.OutcomeAlreadyRecorded, app.Outcome)
			assert.Equal(t, ledger.StatusRejected, app.Record.Status)
		})
	}
}

func TestLedger_Find(t *testing.T) {
	for name, factory := range ledgerFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := factory(t)

			_, err := l.Find(ctx, "s-1", "hash-a")
			assert.ErrorIs(t, err, ledger.ErrNotFound)

			_, err = l.RecordApproval(ctx, "s-1", "hash-a", "alice")
			require.NoError(t, err)

			rec, err := l.Find(ctx, "s-1", "hash-a")
			require.NoError(t, err)
			assert.Equal(t, ledger.StatusApproved, rec.Status)
		})
	}
}

func TestLedger_ConcurrentWritersSingleWinner(t *testing.T) {
	for name, factory := range ledgerFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := factory(t)

			const writers = 20
			outcomes := make([]ledger.Outcome, writers)

			var wg sync.WaitGroup
			wg.Add(writers)
			for i := 0; i < writers; i++ {
				go func(i int) {
					defer wg.Done()
					res, err := l.RecordApproval(ctx, "s-1", "hash-a", "writer")
					if err == nil {
						outcomes[i] = res.Outcome
					}
				}(i)
			}
			wg.Wait()

			accepted := 0
			for _, o := range outcomes {
				if o == ledger.OutcomeAccepted {
					accepted++
				}
			}
			assert.Equal(t, 1, accepted)
		})
	}
}

func TestLedger_Closed(t *testing.T) {
	l := ledger.NewMemoryLedger()
	require.NoError(t, l.Close())

	_, err := l.RecordApproval(context.Background(), "s-1", "h", "a")
	assert.ErrorIs(t, err, ledger.ErrLedgerClosed)
}
