package governance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cookledger/internal/domain/committee"
	"cookledger/internal/domain/equity"
	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// SelectCommitteeMembers runs the seeded weighted lottery over the
// eligible pool, verifies the outcome, and persists the selection together
// with the winners' service terms in one transaction. A verification
// failure discards the run: nothing is persisted.
func (s *Service) SelectCommitteeMembers(ctx context.Context, input SelectCommitteeInput) (ports.CommitteeSelection, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.CommitteeSelection{}, err
	}
	if strings.TrimSpace(input.CommitteeID) == "" {
		return ports.CommitteeSelection{}, errs.Validationf("committee id is required")
	}

	cfg, err := s.loadTeamConfig(ctx, input.TeamID)
	if err != nil {
		return ports.CommitteeSelection{}, err
	}

	results, err := s.eligibleMembers(ctx, cfg)
	if err != nil {
		return ports.CommitteeSelection{}, err
	}
	eligible := committee.EligibleOnly(results)
	if len(eligible) == 0 {
		return ports.CommitteeSelection{}, errs.InsufficientDataf("team %s has no eligible members", cfg.TeamID)
	}

	pool := make([]committee.PoolMember, 0, len(eligible))
	for _, member := range eligible {
		weight, err := s.memberWeight(ctx, cfg, member.ContributorID)
		if err != nil {
			return ports.CommitteeSelection{}, err
		}
		pool = append(pool, committee.PoolMember{
			ContributorID: member.ContributorID,
			Weight:        weight,
		})
	}

	now := s.now()
	result, err := committee.SelectMembers(pool, input.Seats, input.Seed, now)
	if err != nil {
		return ports.CommitteeSelection{}, err
	}
	if err := committee.VerifyResult(result, pool); err != nil {
		return ports.CommitteeSelection{}, errs.Wrap(err, "lottery verification failed, selection discarded")
	}

	selection := ports.CommitteeSelection{
		ID:          newID(),
		CommitteeID: input.CommitteeID,
		TeamID:      cfg.TeamID,
		Result:      result,
		Eligible:    results,
		CreatedAt:   now,
		CreatedBy:   input.Actor,
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.gov.SaveSelection(txCtx, selection); err != nil {
			return err
		}
		for _, winner := range result.Selected {
			term := committee.ServiceTerm{
				ID:            newID(),
				CommitteeID:   input.CommitteeID,
				ContributorID: winner,
				StartDate:     now,
				Status:        committee.TermStatusActive,
			}
			if err := s.gov.CreateServiceTerm(txCtx, term); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return ports.CommitteeSelection{}, err
	}

	weightsUsed := make(map[string]float64, len(pool))
	participants := make([]string, 0, len(pool))
	for _, member := range pool {
		weightsUsed[member.ContributorID] = member.Weight
		participants = append(participants, member.ContributorID)
	}
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "committee_selection",
		ActorID:           input.Actor,
		Participants:      participants,
		Outcome:           strings.Join(result.Selected, ","),
		WeightsUsed:       weightsUsed,
		TotalWeight:       result.TotalWeight,
		RelatedEntityID:   selection.ID,
		RelatedEntityType: "committee_selection",
		Metadata: map[string]string{
			"committee_id": input.CommitteeID,
			"seed":         result.Seed,
			"seed_derived": fmt.Sprintf("%t", result.SeedDerived),
			"seats":        fmt.Sprintf("%d", result.Seats),
		},
	})

	return selection, nil
}

// memberWeight prefers the stored governance weight record and falls back
// to a fresh pipeline run when none exists yet.
func (s *Service) memberWeight(ctx context.Context, cfg ports.TeamConfig, contributorID string) (float64, error) {
	record, err := s.gov.GetWeightRecord(ctx, cfg.TeamID, contributorID)
	if err == nil {
		return record.Weight, nil
	}
	if !errors.Is(err, ports.ErrWeightRecordNotFound) {
		return 0, err
	}

	entries, err := s.ledger.ListContributorEntries(ctx, cfg.TeamID, contributorID)
	if err != nil {
		return 0, err
	}
	ev, err := ledger.ComputeEffectiveValue(entries, pipelineConfig(cfg), s.now())
	if err != nil {
		return 0, err
	}
	return equity.WeightFromEffective(contributorID, ev).Weight, nil
}

// VerifyLotteryResult reloads a persisted selection and re-runs the
// verifier against its recorded pool. The pool itself is cross-checked
// against the persisted eligibility snapshot first, so a tampered pool
// does not verify against itself.
func (s *Service) VerifyLotteryResult(ctx context.Context, selectionID string) (ports.CommitteeSelection, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.CommitteeSelection{}, err
	}
	if strings.TrimSpace(selectionID) == "" {
		return ports.CommitteeSelection{}, errs.Validationf("selection id is required")
	}

	selection, err := s.gov.GetSelection(ctx, selectionID)
	if err != nil {
		return ports.CommitteeSelection{}, err
	}

	eligible := committee.EligibleOnly(selection.Eligible)
	if len(eligible) != len(selection.Result.Pool) {
		return ports.CommitteeSelection{}, errs.StateConflictf(
			"recorded pool has %d members, eligibility snapshot has %d",
			len(selection.Result.Pool), len(eligible))
	}
	eligibleIDs := make(map[string]struct{}, len(eligible))
	for _, member := range eligible {
		eligibleIDs[member.ContributorID] = struct{}{}
	}
	for _, member := range selection.Result.Pool {
		if _, ok := eligibleIDs[member.ContributorID]; !ok {
			return ports.CommitteeSelection{}, errs.StateConflictf(
				"pool member %s is not in the eligibility snapshot", member.ContributorID)
		}
	}

	if err := committee.VerifyResult(selection.Result, selection.Result.Pool); err != nil {
		return ports.CommitteeSelection{}, err
	}
	return selection, nil
}
