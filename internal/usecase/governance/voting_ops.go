package governance

import (
	"context"
	"fmt"
	"strings"
	"time"

	domaingov "cookledger/internal/domain/governance"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// CastVote records one ballot weighted by the voter's current governance
// weight: the stored record when present, otherwise a fresh pipeline run
// over the voter's entries.
func (s *Service) CastVote(ctx context.Context, input CastVoteInput) (domaingov.Voting, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Voting{}, err
	}
	if strings.TrimSpace(input.VoterID) == "" {
		return domaingov.Voting{}, errs.Validationf("voter id is required")
	}

	voting, err := s.gov.GetVoting(ctx, input.VotingID)
	if err != nil {
		return domaingov.Voting{}, err
	}

	teamID := strings.TrimSpace(input.TeamID)
	if teamID == "" {
		proposal, err := s.gov.GetProposal(ctx, voting.ProposalID)
		if err != nil {
			return domaingov.Voting{}, err
		}
		teamID = proposal.TeamID
	}

	cfg, err := s.loadTeamConfig(ctx, teamID)
	if err != nil {
		return domaingov.Voting{}, err
	}
	weight, err := s.memberWeight(ctx, cfg, input.VoterID)
	if err != nil {
		return domaingov.Voting{}, err
	}

	if err := voting.Cast(input.VoterID, input.Option, weight, s.now()); err != nil {
		return domaingov.Voting{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.SaveVoting(txCtx, voting)
	}); err != nil {
		return domaingov.Voting{}, err
	}

	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "vote_cast",
		ActorID:           input.VoterID,
		Participants:      []string{input.VoterID},
		Outcome:           input.Option,
		WeightsUsed:       map[string]float64{input.VoterID: weight},
		RelatedEntityID:   voting.ID,
		RelatedEntityType: "voting",
	})

	return voting, nil
}

// TallyVoting closes and tallies a voting, then applies the outcome to its
// proposal: a winning "approve" approves, anything else rejects. Voting
// and proposal commit together.
func (s *Service) TallyVoting(ctx context.Context, votingID string) (domaingov.Voting, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Voting{}, err
	}

	voting, err := s.gov.GetVoting(ctx, votingID)
	if err != nil {
		return domaingov.Voting{}, err
	}
	proposal, err := s.gov.GetProposal(ctx, voting.ProposalID)
	if err != nil {
		return domaingov.Voting{}, err
	}
	cfg, err := s.loadTeamConfig(ctx, proposal.TeamID)
	if err != nil {
		return domaingov.Voting{}, err
	}

	threshold := cfg.ApprovalThreshold
	if proposal.Type == domaingov.ProposalTypeConstitutional {
		threshold = cfg.ConstitutionalThreshold
	}

	now := s.now()
	if voting.Status == domaingov.VotingStatusOpen {
		if now.Before(voting.ClosesAt) {
			return domaingov.Voting{}, errs.StateConflictf("voting is open until %s", voting.ClosesAt.Format(time.RFC3339))
		}
		if err := voting.Close(); err != nil {
			return domaingov.Voting{}, err
		}
	}
	if err := voting.Tally(threshold); err != nil {
		return domaingov.Voting{}, err
	}

	if voting.Winning == "approve" {
		err = proposal.Approve(now)
	} else {
		err = proposal.Reject(now)
	}
	if err != nil {
		return domaingov.Voting{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.gov.SaveVoting(txCtx, voting); err != nil {
			return err
		}
		return s.gov.SaveProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Voting{}, err
	}

	weightsUsed := make(map[string]float64, len(voting.Votes))
	participants := make([]string, 0, len(voting.Votes))
	totalWeight := 0.0
	for _, vote := range voting.Votes {
		weightsUsed[vote.VoterID] = vote.Weight
		participants = append(participants, vote.VoterID)
		totalWeight += vote.Weight
	}
	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "voting_tallied",
		ActorID:           "system",
		Participants:      participants,
		Outcome:           proposal.Status,
		WeightsUsed:       weightsUsed,
		TotalWeight:       totalWeight,
		RelatedEntityID:   voting.ID,
		RelatedEntityType: "voting",
		Metadata: map[string]string{
			"proposal_id": proposal.ID,
			"winning":     voting.Winning,
			"threshold":   fmt.Sprintf("%v", threshold),
		},
	})

	return voting, nil
}

func (s *Service) GetVoting(ctx context.Context, votingID string) (domaingov.Voting, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Voting{}, err
	}
	return s.gov.GetVoting(ctx, votingID)
}
