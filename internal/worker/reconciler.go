// Package worker runs the out-of-process balance reconciler: it consumes
// invalidation messages and checks each touched piggy bank's stored
// balance against the sum of its ledger rows.
package worker

import (
	"context"

	"github.com/google/uuid"

	"kopilka/internal/auth"
	"kopilka/internal/cache"
	"kopilka/internal/events"
	"kopilka/internal/log"
	"kopilka/internal/store"
)

type Reconciler struct {
	store  *store.Store
	repair bool
	logger *log.Logger
}

// NewReconciler builds a reconciler. With repair false it only reports
// drift; with repair true it overwrites drifted balances with the ledger
// sum.
func NewReconciler(s *store.Store, repair bool, logger *log.Logger) *Reconciler {
	return &Reconciler{store: s, repair: repair, logger: logger}
}

// Run consumes invalidation messages until ctx is done.
func (r *Reconciler) Run(ctx context.Context, client *events.Client) error {
	return client.Consume(ctx, func(msg *events.InvalidationMessage) error {
		return r.Handle(ctx, msg)
	})
}

// Handle reconciles the banks a message touched. A message tagged with
// specific bank ids checks only those; a bare piggy-bank tag checks every
// active bank of the user.
func (r *Reconciler) Handle(ctx context.Context, msg *events.InvalidationMessage) error {
	ctx = auth.WithUser(ctx, msg.UserID)

	ids := msg.PiggyBankIDs()
	if len(ids) == 0 {
		if !hasTag(msg.Tags, cache.TagPiggyBanks) {
			return nil
		}
		banks, err := r.store.ListPiggyBanks(ctx)
		if err != nil {
			return err
		}
		for _, b := range banks {
			ids = append(ids, b.ID)
		}
	}

	for _, id := range ids {
		if err := r.reconcileBank(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) reconcileBank(ctx context.Context, bankID uuid.UUID) error {
	bank, err := r.store.GetPiggyBank(ctx, bankID)
	if err != nil {
		return err
	}
	ledgerSum, err := r.store.SumPiggyBankLedger(ctx, bankID)
	if err != nil {
		return err
	}

	if bank.CurrentAmount.Equal(ledgerSum) {
		r.logger.DebugContext(ctx, "Piggy bank balance consistent",
			"piggy_bank_id", bankID,
			"balance", bank.CurrentAmount)
		return nil
	}

	r.logger.WarnContext(ctx, "Piggy bank balance drifted from ledger",
		"piggy_bank_id", bankID,
		"stored", bank.CurrentAmount,
		"ledger", ledgerSum,
		"drift", bank.CurrentAmount.Sub(ledgerSum))

	if !r.repair {
		return nil
	}
	if err := r.store.SetPiggyBankBalance(ctx, bankID, ledgerSum); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Repaired piggy bank balance",
		"piggy_bank_id", bankID,
		"balance", ledgerSum)
	return nil
}

func hasTag(tags []cache.Tag, want cache.Tag) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
