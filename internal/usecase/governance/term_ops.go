package governance

import (
	"context"
	"fmt"
	"strings"

	"cookledger/internal/domain/committee"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// StartServiceTerm opens a service term outside the lottery flow, for
// appointed or carried-over seats.
func (s *Service) StartServiceTerm(ctx context.Context, input StartServiceTermInput) (committee.ServiceTerm, error) {
	if err := s.checkReady(ctx); err != nil {
		return committee.ServiceTerm{}, err
	}
	if strings.TrimSpace(input.CommitteeID) == "" {
		return committee.ServiceTerm{}, errs.Validationf("committee id is required")
	}
	if strings.TrimSpace(input.ContributorID) == "" {
		return committee.ServiceTerm{}, errs.Validationf("contributor id is required")
	}

	active, err := s.gov.ListServiceTerms(ctx, ports.ServiceTermFilter{
		ContributorID: input.ContributorID,
		CommitteeID:   input.CommitteeID,
		ActiveOnly:    true,
	})
	if err != nil {
		return committee.ServiceTerm{}, err
	}
	if len(active) > 0 {
		return committee.ServiceTerm{}, errs.StateConflictf("contributor %s already serves on %s", input.ContributorID, input.CommitteeID)
	}

	term := committee.ServiceTerm{
		ID:            newID(),
		CommitteeID:   input.CommitteeID,
		ContributorID: input.ContributorID,
		StartDate:     s.now(),
		Status:        committee.TermStatusActive,
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.CreateServiceTerm(txCtx, term)
	}); err != nil {
		return committee.ServiceTerm{}, err
	}

	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "service_term_started",
		ActorID:           input.ContributorID,
		Participants:      []string{input.ContributorID},
		Outcome:           "started",
		RelatedEntityID:   term.ID,
		RelatedEntityType: "service_term",
		Metadata:          map[string]string{"committee_id": input.CommitteeID},
	})

	return term, nil
}

// EndServiceTerm completes or terminates an active term. The contributor
// enters the cooling-off window from the end date.
func (s *Service) EndServiceTerm(ctx context.Context, input EndServiceTermInput) (committee.ServiceTerm, error) {
	if err := s.checkReady(ctx); err != nil {
		return committee.ServiceTerm{}, err
	}

	term, err := s.gov.GetServiceTerm(ctx, input.TermID)
	if err != nil {
		return committee.ServiceTerm{}, err
	}
	if err := term.End(s.now(), input.Terminated); err != nil {
		return committee.ServiceTerm{}, err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.SaveServiceTerm(txCtx, term)
	}); err != nil {
		return committee.ServiceTerm{}, err
	}

	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "service_term_ended",
		ActorID:           term.ContributorID,
		Participants:      []string{term.ContributorID},
		Outcome:           term.Status,
		RelatedEntityID:   term.ID,
		RelatedEntityType: "service_term",
		Metadata: map[string]string{
			"committee_id":  term.CommitteeID,
			"duration_days": fmt.Sprintf("%d", term.DurationDays),
		},
	})

	return term, nil
}

func (s *Service) ListServiceTerms(ctx context.Context, filter ports.ServiceTermFilter) ([]committee.ServiceTerm, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	return s.gov.ListServiceTerms(ctx, filter)
}
