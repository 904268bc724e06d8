package governance

import (
	"context"

	"cookledger/internal/domain/committee"
	"cookledger/internal/ports"
)

// GetEligibleMembers evaluates committee eligibility for every contributor
// on the team. Results include the excluded contributors with reasons.
func (s *Service) GetEligibleMembers(ctx context.Context, teamID string) ([]committee.EligibilityResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.loadTeamConfig(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.eligibleMembers(ctx, cfg)
}

func (s *Service) eligibleMembers(ctx context.Context, cfg ports.TeamConfig) ([]committee.EligibilityResult, error) {
	contributors, err := s.ledger.ListTeamContributors(ctx, cfg.TeamID)
	if err != nil {
		return nil, err
	}

	candidates := make([]committee.Candidate, 0, len(contributors))
	for _, contributorID := range contributors {
		entries, err := s.ledger.ListContributorEntries(ctx, cfg.TeamID, contributorID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, committee.Candidate{
			ContributorID: contributorID,
			Entries:       entries,
		})
	}

	terms, err := s.gov.ListServiceTerms(ctx, ports.ServiceTermFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	exclusions := committee.ExclusionsFromTerms(terms, *cfg.CoolingOffDays, now)
	return committee.FilterEligible(candidates, committee.EligibilityConfig{
		WindowMonths:       cfg.EligibilityWindowMonths,
		MinimumActiveValue: cfg.MinimumActiveValue,
	}, exclusions, now)
}
