package governance

import (
	"context"
	"fmt"
	"strings"

	domaingov "cookledger/internal/domain/governance"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// AdoptConstitutionalChange records the next version of a rule from an
// approved constitutional proposal. Versions are strictly monotonic per
// rule; the first adoption of a rule is version 1.
func (s *Service) AdoptConstitutionalChange(ctx context.Context, proposalID, adoptedBy string) (domaingov.ConstitutionalChange, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.ConstitutionalChange{}, err
	}
	if strings.TrimSpace(adoptedBy) == "" {
		return domaingov.ConstitutionalChange{}, errs.Validationf("adopter id is required")
	}

	proposal, err := s.gov.GetProposal(ctx, proposalID)
	if err != nil {
		return domaingov.ConstitutionalChange{}, err
	}
	cfg, err := s.loadTeamConfig(ctx, proposal.TeamID)
	if err != nil {
		return domaingov.ConstitutionalChange{}, err
	}

	approvalPct := cfg.ConstitutionalThreshold
	if proposal.VotingID != "" {
		voting, err := s.gov.GetVoting(ctx, proposal.VotingID)
		if err != nil {
			return domaingov.ConstitutionalChange{}, err
		}
		for _, tally := range voting.Results {
			if tally.Option == voting.Winning {
				approvalPct = tally.Percent
			}
		}
	}

	previous, err := s.gov.LatestConstitutionalChange(ctx, proposal.RuleName)
	if err != nil {
		return domaingov.ConstitutionalChange{}, err
	}

	change, err := domaingov.NewConstitutionalChange(newID(), proposal, previous, approvalPct, adoptedBy, s.now())
	if err != nil {
		return domaingov.ConstitutionalChange{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.AppendConstitutionalChange(txCtx, change)
	}); err != nil {
		return domaingov.ConstitutionalChange{}, err
	}

	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "constitutional_change_adopted",
		ActorID:           adoptedBy,
		Outcome:           "adopted",
		RelatedEntityID:   change.ID,
		RelatedEntityType: "constitutional_change",
		Metadata: map[string]string{
			"rule_name":   change.RuleName,
			"version":     fmt.Sprintf("%d", change.Version),
			"proposal_id": proposal.ID,
		},
	})

	return change, nil
}

func (s *Service) ListConstitutionalChanges(ctx context.Context, ruleName string) ([]domaingov.ConstitutionalChange, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ruleName) == "" {
		return nil, errs.Validationf("rule name is required")
	}
	return s.gov.ListConstitutionalChanges(ctx, ruleName)
}
