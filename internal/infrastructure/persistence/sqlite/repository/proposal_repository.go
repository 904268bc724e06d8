package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"cookledger/internal/domain/governance"
	"cookledger/internal/errs"
	"cookledger/internal/infrastructure/persistence/sqlite/model"
	"cookledger/internal/ports"
)

func (r *GovernanceRepository) CreateProposal(ctx context.Context, proposal governance.Proposal) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := mapProposalToRow(proposal)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert proposal")
	}
	return nil
}

func (r *GovernanceRepository) SaveProposal(ctx context.Context, proposal governance.Proposal) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := mapProposalToRow(proposal)
	if err != nil {
		return err
	}
	result := db.Model(&model.Proposal{}).
		Where("proposal_id = ?", proposal.ID).
		Updates(map[string]any{
			"status":           row.Status,
			"window_opens_at":  row.WindowOpensAt,
			"window_closes_at": row.WindowClosesAt,
			"objections_json":  row.ObjectionsJSON,
			"voting_id":        row.VotingID,
			"decided_at":       row.DecidedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update proposal")
	}
	if result.RowsAffected == 0 {
		return ports.ErrProposalNotFound
	}
	return nil
}

func (r *GovernanceRepository) GetProposal(ctx context.Context, id string) (governance.Proposal, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return governance.Proposal{}, err
	}

	var row model.Proposal
	if err := db.Where("proposal_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return governance.Proposal{}, ports.ErrProposalNotFound
		}
		return governance.Proposal{}, errs.Wrap(err, "query proposal")
	}
	return mapProposalFromRow(row)
}

func (r *GovernanceRepository) ListProposals(ctx context.Context, teamID string) ([]governance.Proposal, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Proposal
	if err := db.
		Where("team_id = ?", teamID).
		Order("created_at asc, proposal_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query proposals")
	}

	items := make([]governance.Proposal, 0, len(rows))
	for _, row := range rows {
		proposal, err := mapProposalFromRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, proposal)
	}
	return items, nil
}

func mapProposalToRow(proposal governance.Proposal) (model.Proposal, error) {
	objections := proposal.Objections
	if objections == nil {
		objections = []governance.Objection{}
	}
	objectionsJSON, err := json.Marshal(objections)
	if err != nil {
		return model.Proposal{}, errs.Wrap(err, "marshal objections")
	}

	return model.Proposal{
		ProposalID:     proposal.ID,
		TeamID:         proposal.TeamID,
		Type:           proposal.Type,
		Title:          proposal.Title,
		Description:    proposal.Description,
		RuleName:       proposal.RuleName,
		ChangeType:     proposal.ChangeType,
		Status:         proposal.Status,
		ProposedBy:     proposal.ProposedBy,
		CreatedAt:      formatTime(proposal.CreatedAt),
		WindowOpensAt:  formatTimePtr(proposal.WindowOpensAt),
		WindowClosesAt: formatTimePtr(proposal.WindowClosesAt),
		ObjectionsJSON: string(objectionsJSON),
		VotingID:       proposal.VotingID,
		DecidedAt:      formatTimePtr(proposal.DecidedAt),
	}, nil
}

func mapProposalFromRow(row model.Proposal) (governance.Proposal, error) {
	proposal := governance.Proposal{
		ID:             row.ProposalID,
		TeamID:         row.TeamID,
		Type:           row.Type,
		Title:          row.Title,
		Description:    row.Description,
		RuleName:       row.RuleName,
		ChangeType:     row.ChangeType,
		Status:         row.Status,
		ProposedBy:     row.ProposedBy,
		CreatedAt:      parseTime(row.CreatedAt),
		WindowOpensAt:  parseTimePtr(row.WindowOpensAt),
		WindowClosesAt: parseTimePtr(row.WindowClosesAt),
		VotingID:       row.VotingID,
		DecidedAt:      parseTimePtr(row.DecidedAt),
	}
	if err := json.Unmarshal([]byte(row.ObjectionsJSON), &proposal.Objections); err != nil {
		return governance.Proposal{}, errs.Wrap(err, "unmarshal objections")
	}
	return proposal, nil
}

func (r *GovernanceRepository) CreateVoting(ctx context.Context, voting governance.Voting) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := mapVotingToRow(voting)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert voting")
	}
	return nil
}

func (r *GovernanceRepository) SaveVoting(ctx context.Context, voting governance.Voting) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := mapVotingToRow(voting)
	if err != nil {
		return err
	}
	result := db.Model(&model.Voting{}).
		Where("voting_id = ?", voting.ID).
		Updates(map[string]any{
			"status":       row.Status,
			"votes_json":   row.VotesJSON,
			"results_json": row.ResultsJSON,
			"winning":      row.Winning,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update voting")
	}
	if result.RowsAffected == 0 {
		return ports.ErrVotingNotFound
	}
	return nil
}

func (r *GovernanceRepository) GetVoting(ctx context.Context, id string) (governance.Voting, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return governance.Voting{}, err
	}

	var row model.Voting
	if err := db.Where("voting_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return governance.Voting{}, ports.ErrVotingNotFound
		}
		return governance.Voting{}, errs.Wrap(err, "query voting")
	}
	return mapVotingFromRow(row)
}

func mapVotingToRow(voting governance.Voting) (model.Voting, error) {
	optionsJSON, err := json.Marshal(voting.Options)
	if err != nil {
		return model.Voting{}, errs.Wrap(err, "marshal voting options")
	}
	votes := voting.Votes
	if votes == nil {
		votes = []governance.Vote{}
	}
	votesJSON, err := json.Marshal(votes)
	if err != nil {
		return model.Voting{}, errs.Wrap(err, "marshal votes")
	}
	results := voting.Results
	if results == nil {
		results = []governance.OptionTally{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return model.Voting{}, errs.Wrap(err, "marshal tally results")
	}

	return model.Voting{
		VotingID:    voting.ID,
		ProposalID:  voting.ProposalID,
		OptionsJSON: string(optionsJSON),
		Status:      voting.Status,
		OpensAt:     formatTime(voting.OpensAt),
		ClosesAt:    formatTime(voting.ClosesAt),
		VotesJSON:   string(votesJSON),
		ResultsJSON: string(resultsJSON),
		Winning:     voting.Winning,
	}, nil
}

func mapVotingFromRow(row model.Voting) (governance.Voting, error) {
	voting := governance.Voting{
		ID:         row.VotingID,
		ProposalID: row.ProposalID,
		Status:     row.Status,
		OpensAt:    parseTime(row.OpensAt),
		ClosesAt:   parseTime(row.ClosesAt),
		Winning:    row.Winning,
	}
	if err := json.Unmarshal([]byte(row.OptionsJSON), &voting.Options); err != nil {
		return governance.Voting{}, errs.Wrap(err, "unmarshal voting options")
	}
	if err := json.Unmarshal([]byte(row.VotesJSON), &voting.Votes); err != nil {
		return governance.Voting{}, errs.Wrap(err, "unmarshal votes")
	}
	if err := json.Unmarshal([]byte(row.ResultsJSON), &voting.Results); err != nil {
		return governance.Voting{}, errs.Wrap(err, "unmarshal tally results")
	}
	return voting, nil
}

func (r *GovernanceRepository) AppendConstitutionalChange(ctx context.Context, change governance.ConstitutionalChange) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.ConstitutionalChange{
		ChangeID:           change.ID,
		RuleName:           change.RuleName,
		Version:            change.Version,
		PreviousVersion:    change.PreviousVersion,
		ChangeType:         change.ChangeType,
		ApprovalPercentage: change.ApprovalPercentage,
		AdoptedAt:          formatTime(change.AdoptedAt),
		AdoptedBy:          change.AdoptedBy,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert constitutional change")
	}
	return nil
}

func (r *GovernanceRepository) LatestConstitutionalChange(ctx context.Context, ruleName string) (*governance.ConstitutionalChange, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var row model.ConstitutionalChange
	if err := db.
		Where("rule_name = ?", ruleName).
		Order("version desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "query latest constitutional change")
	}

	change := mapConstitutionalChangeFromRow(row)
	return &change, nil
}

func (r *GovernanceRepository) ListConstitutionalChanges(ctx context.Context, ruleName string) ([]governance.ConstitutionalChange, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ConstitutionalChange
	if err := db.
		Where("rule_name = ?", ruleName).
		Order("version asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query constitutional changes")
	}

	items := make([]governance.ConstitutionalChange, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapConstitutionalChangeFromRow(row))
	}
	return items, nil
}

func mapConstitutionalChangeFromRow(row model.ConstitutionalChange) governance.ConstitutionalChange {
	return governance.ConstitutionalChange{
		ID:                 row.ChangeID,
		RuleName:           row.RuleName,
		Version:            row.Version,
		PreviousVersion:    row.PreviousVersion,
		ChangeType:         row.ChangeType,
		ApprovalPercentage: row.ApprovalPercentage,
		AdoptedAt:          parseTime(row.AdoptedAt),
		AdoptedBy:          row.AdoptedBy,
	}
}
