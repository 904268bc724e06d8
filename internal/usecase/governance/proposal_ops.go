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

// CreateProposal stores a new draft proposal.
func (s *Service) CreateProposal(ctx context.Context, input CreateProposalInput) (domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Proposal{}, err
	}

	proposalType := strings.TrimSpace(input.Type)
	if proposalType == "" {
		proposalType = domaingov.ProposalTypeOrdinary
	}

	proposal := domaingov.Proposal{
		ID:          newID(),
		TeamID:      strings.TrimSpace(input.TeamID),
		Type:        proposalType,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		RuleName:    strings.TrimSpace(input.RuleName),
		ChangeType:  strings.TrimSpace(input.ChangeType),
		Status:      domaingov.StatusDraft,
		ProposedBy:  strings.TrimSpace(input.ProposedBy),
		CreatedAt:   s.now(),
	}
	if proposal.ProposedBy == "" {
		return domaingov.Proposal{}, errs.Validationf("proposer id is required")
	}
	if err := domaingov.ValidateProposal(proposal); err != nil {
		return domaingov.Proposal{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.CreateProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Proposal{}, err
	}

	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "proposal_created",
		ActorID:           proposal.ProposedBy,
		Participants:      []string{proposal.ProposedBy},
		Outcome:           "created",
		RelatedEntityID:   proposal.ID,
		RelatedEntityType: "proposal",
		Metadata: map[string]string{
			"team_id": proposal.TeamID,
			"type":    proposal.Type,
			"title":   proposal.Title,
		},
	})

	return proposal, nil
}

// OpenObjectionWindow moves a draft into its objection window, stamped
// with the team's configured window length.
func (s *Service) OpenObjectionWindow(ctx context.Context, proposalID string) (domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Proposal{}, err
	}

	proposal, err := s.gov.GetProposal(ctx, proposalID)
	if err != nil {
		return domaingov.Proposal{}, err
	}
	cfg, err := s.loadTeamConfig(ctx, proposal.TeamID)
	if err != nil {
		return domaingov.Proposal{}, err
	}

	if err := proposal.OpenObjectionWindow(daysToDuration(cfg.ObjectionWindowDays), s.now()); err != nil {
		return domaingov.Proposal{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.SaveProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Proposal{}, err
	}

	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "objection_window_opened",
		ActorID:           proposal.ProposedBy,
		Outcome:           "opened",
		RelatedEntityID:   proposal.ID,
		RelatedEntityType: "proposal",
		Metadata: map[string]string{
			"window_days": fmt.Sprintf("%d", cfg.ObjectionWindowDays),
		},
	})

	return proposal, nil
}

// AddObjection appends one objection, then re-checks the threshold.
// Crossing it triggers the voting exactly once. The weight is taken
// from the input as-is: an unweighted objection still moves the plain
// objection count.
func (s *Service) AddObjection(ctx context.Context, input AddObjectionInput) (domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Proposal{}, err
	}
	if strings.TrimSpace(input.ContributorID) == "" {
		return domaingov.Proposal{}, errs.Validationf("objection contributor id is required")
	}
	if input.Weight < 0 {
		return domaingov.Proposal{}, errs.Validationf("objection weight must not be negative")
	}

	proposal, err := s.gov.GetProposal(ctx, input.ProposalID)
	if err != nil {
		return domaingov.Proposal{}, err
	}
	cfg, err := s.loadTeamConfig(ctx, proposal.TeamID)
	if err != nil {
		return domaingov.Proposal{}, err
	}

	now := s.now()
	if err := proposal.AddObjection(domaingov.Objection{
		ContributorID: input.ContributorID,
		Reason:        strings.TrimSpace(input.Reason),
		Weight:        input.Weight,
	}, now); err != nil {
		return domaingov.Proposal{}, err
	}

	triggered := false
	var voting domaingov.Voting
	if proposal.ThresholdExceeded(*cfg.ObjectionThreshold) {
		voting, err = s.buildVoting(proposal, cfg, now)
		if err != nil {
			return domaingov.Proposal{}, err
		}
		if err := proposal.TriggerVoting(voting.ID); err != nil {
			return domaingov.Proposal{}, err
		}
		triggered = true
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if triggered {
			if err := s.gov.CreateVoting(txCtx, voting); err != nil {
				return err
			}
		}
		return s.gov.SaveProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Proposal{}, err
	}

	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "objection_added",
		ActorID:           input.ContributorID,
		Participants:      []string{input.ContributorID},
		Outcome:           proposal.Status,
		WeightsUsed:       map[string]float64{input.ContributorID: input.Weight},
		RelatedEntityID:   proposal.ID,
		RelatedEntityType: "proposal",
		Metadata: map[string]string{
			"objection_count":  fmt.Sprintf("%d", proposal.ObjectionCount()),
			"voting_triggered": fmt.Sprintf("%t", triggered),
		},
	})

	return proposal, nil
}

// TriggerVoting forces the voting transition for a proposal already past
// its threshold, without appending a new objection.
func (s *Service) TriggerVoting(ctx context.Context, proposalID string) (domaingov.Voting, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Voting{}, err
	}

	proposal, err := s.gov.GetProposal(ctx, proposalID)
	if err != nil {
		return domaingov.Voting{}, err
	}
	cfg, err := s.loadTeamConfig(ctx, proposal.TeamID)
	if err != nil {
		return domaingov.Voting{}, err
	}
	if !proposal.ThresholdExceeded(*cfg.ObjectionThreshold) {
		return domaingov.Voting{}, errs.StateConflictf("proposal %s has not exceeded the objection threshold", proposal.ID)
	}

	voting, err := s.buildVoting(proposal, cfg, s.now())
	if err != nil {
		return domaingov.Voting{}, err
	}
	if err := proposal.TriggerVoting(voting.ID); err != nil {
		return domaingov.Voting{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.gov.CreateVoting(txCtx, voting); err != nil {
			return err
		}
		return s.gov.SaveProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Voting{}, err
	}

	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "voting_triggered",
		ActorID:           proposal.ProposedBy,
		Outcome:           "triggered",
		RelatedEntityID:   proposal.ID,
		RelatedEntityType: "proposal",
		Metadata:          map[string]string{"voting_id": voting.ID},
	})

	return voting, nil
}

// buildVoting opens an approve/reject voting with the period matching the
// proposal type.
func (s *Service) buildVoting(proposal domaingov.Proposal, cfg ports.TeamConfig, now time.Time) (domaingov.Voting, error) {
	periodDays := cfg.VotingPeriodDays
	if proposal.Type == domaingov.ProposalTypeConstitutional {
		periodDays = cfg.ConstitutionalVotingPeriodDays
	}
	return domaingov.NewVoting(newID(), proposal.ID, []string{"approve", "reject"}, daysToDuration(periodDays), now)
}

// CloseObjectionWindow closes a window whose deadline passed without the
// threshold being exceeded. The proposal auto-approves.
func (s *Service) CloseObjectionWindow(ctx context.Context, proposalID string) (domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Proposal{}, err
	}

	proposal, err := s.gov.GetProposal(ctx, proposalID)
	if err != nil {
		return domaingov.Proposal{}, err
	}

	now := s.now()
	if proposal.WindowClosesAt != nil && now.Before(*proposal.WindowClosesAt) {
		return domaingov.Proposal{}, errs.StateConflictf("objection window is open until %s", proposal.WindowClosesAt.Format(time.RFC3339))
	}
	if err := proposal.CloseObjectionWindow(now); err != nil {
		return domaingov.Proposal{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.SaveProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Proposal{}, err
	}

	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "objection_window_closed",
		ActorID:           proposal.ProposedBy,
		Outcome:           proposal.Status,
		RelatedEntityID:   proposal.ID,
		RelatedEntityType: "proposal",
	})

	return proposal, nil
}

// WithdrawProposal lets the proposer withdraw a non-terminal proposal.
func (s *Service) WithdrawProposal(ctx context.Context, proposalID, actor string) (domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Proposal{}, err
	}

	proposal, err := s.gov.GetProposal(ctx, proposalID)
	if err != nil {
		return domaingov.Proposal{}, err
	}
	if err := proposal.Withdraw(s.now()); err != nil {
		return domaingov.Proposal{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.SaveProposal(txCtx, proposal)
	}); err != nil {
		return domaingov.Proposal{}, err
	}

	s.setCacheBestEffort(ctx, cacheProposalStatusKey(proposal.ID), proposal.Status)
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "proposal_withdrawn",
		ActorID:           actor,
		Outcome:           "withdrawn",
		RelatedEntityID:   proposal.ID,
		RelatedEntityType: "proposal",
	})

	return proposal, nil
}

func (s *Service) GetProposal(ctx context.Context, proposalID string) (domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return domaingov.Proposal{}, err
	}
	return s.gov.GetProposal(ctx, proposalID)
}

func (s *Service) ListProposals(ctx context.Context, teamID string) ([]domaingov.Proposal, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(teamID) == "" {
		return nil, errs.Validationf("team id is required")
	}
	return s.gov.ListProposals(ctx, teamID)
}
