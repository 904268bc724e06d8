package govconsole

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	domaingov "cookledger/internal/domain/governance"
	"cookledger/internal/ports"
	"cookledger/internal/usecase/governance"
)

const maxShownObjections = 4
const maxAuditLines = 8

type TeamOptions struct {
	TeamID          string
	ConfigFile      string
	RefreshInterval time.Duration
}

type teamModel struct {
	ctx             context.Context
	service         *governance.Service
	teamID          string
	configFile      string
	refreshInterval time.Duration

	weights   []ports.WeightRecord
	equity    []ports.EquityRecord
	proposals []domaingov.Proposal
	audits    []ports.AuditEntry
	stamps    governance.RecomputeStamps

	selectedIndex int
	detail        domaingov.Proposal
	hasDetail     bool
	status        string
}

type snapshotLoadedMsg struct {
	weights   []ports.WeightRecord
	equity    []ports.EquityRecord
	proposals []domaingov.Proposal
	audits    []ports.AuditEntry
	stamps    governance.RecomputeStamps
	err       error
}

type proposalDetailLoadedMsg struct {
	proposalID string
	detail     domaingov.Proposal
	err        error
}

type tickMsg struct{}

type recomputeDoneMsg struct {
	weights int
	shares  int
	err     error
}

func NewTeamModel(ctx context.Context, service *governance.Service, options TeamOptions) tea.Model {
	teamID := strings.TrimSpace(options.TeamID)
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &teamModel{
		ctx:             ctx,
		service:         service,
		teamID:          teamID,
		configFile:      strings.TrimSpace(options.ConfigFile),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *teamModel) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshotCmd(), m.tickCmd())
}

func (m *teamModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadSnapshotCmd(), m.tickCmd())
	case snapshotLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.weights = msg.weights
		m.equity = msg.equity
		m.proposals = sortProposalsNewestFirst(msg.proposals)
		m.audits = msg.audits
		m.stamps = msg.stamps
		m.selectedIndex = clampIndex(m.selectedIndex, len(m.proposals))
		if len(m.proposals) == 0 {
			m.hasDetail = false
			m.status = "no proposals"
			return m, nil
		}
		m.status = fmt.Sprintf("refreshed, %d proposals", len(m.proposals))
		return m, m.loadSelectedDetailCmd()
	case proposalDetailLoadedMsg:
		if !m.isCurrentSelected(msg.proposalID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail load failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case recomputeDoneMsg:
		if msg.err != nil {
			m.status = "recompute failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("recomputed weights=%d shares=%d", msg.weights, msg.shares)
		return m, m.loadSnapshotCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadSnapshotCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.proposals)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "r":
			m.status = "recomputing"
			return m, m.recomputeCmd()
		}
	}
	return m, nil
}

func (m *teamModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Governance Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"team=%s config=%s refresh=%s",
		m.teamID,
		firstNonEmpty(m.configFile, "-"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Weights / Equity"))
	builder.WriteString("\n")
	if len(m.weights) == 0 && len(m.equity) == 0 {
		builder.WriteString(dimStyle.Render("- not computed yet (press r)"))
		builder.WriteString("\n\n")
	} else {
		percents := equityByContributor(m.equity)
		for _, record := range m.weights {
			builder.WriteString(fmt.Sprintf(
				"  %-16s weight=%-10.2f equity=%6.2f%%%s\n",
				record.ContributorID,
				record.Weight,
				percents[record.ContributorID],
				pipelineFlags(record.CapApplied, record.DecayApplied),
			))
		}
		if line := formatRecomputeStamps(m.stamps); line != "" {
			builder.WriteString(dimStyle.Render("  " + line))
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Proposals"))
	builder.WriteString("\n")
	if len(m.proposals) == 0 {
		builder.WriteString(dimStyle.Render("- none"))
		builder.WriteString("\n\n")
	} else {
		for index, proposal := range m.proposals {
			line := formatProposalLine(proposal)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Proposal: %s\n", m.detail.ID))
		builder.WriteString(fmt.Sprintf("Title: %s\n", m.detail.Title))
		builder.WriteString(fmt.Sprintf("Status: %s\n", m.detail.Status))
		if m.detail.WindowClosesAt != nil {
			builder.WriteString(fmt.Sprintf("WindowClosesAt: %s\n", m.detail.WindowClosesAt.Format(time.RFC3339)))
		}
		if m.detail.VotingID != "" {
			builder.WriteString(fmt.Sprintf("Voting: %s\n", m.detail.VotingID))
		}
		builder.WriteString("Objections:\n")
		if len(m.detail.Objections) == 0 {
			builder.WriteString("- none\n")
		} else {
			start := len(m.detail.Objections) - maxShownObjections
			if start < 0 {
				start = 0
			}
			for _, objection := range m.detail.Objections[start:] {
				builder.WriteString(fmt.Sprintf("- %s w=%.1f %s\n",
					objection.ContributorID, objection.Weight, firstNonEmpty(objection.Reason, "-")))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Audit"))
	builder.WriteString("\n")
	if len(m.audits) == 0 {
		builder.WriteString(dimStyle.Render("- empty"))
		builder.WriteString("\n\n")
	} else {
		shown := m.audits
		if len(shown) > maxAuditLines {
			shown = shown[:maxAuditLines]
		}
		for _, entry := range shown {
			builder.WriteString(fmt.Sprintf("- %s %s %s %s\n",
				entry.CreatedAt.Format("01-02 15:04"), entry.ActionType, entry.ActorID, entry.Outcome))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j select  g refresh  r recompute  q quit"))
	return builder.String()
}

func (m *teamModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *teamModel) loadSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		weights, err := m.service.ListWeights(m.ctx, m.teamID)
		if err != nil {
			return snapshotLoadedMsg{err: err}
		}
		equity, err := m.service.ListEquity(m.ctx, m.teamID)
		if err != nil {
			return snapshotLoadedMsg{err: err}
		}
		proposals, err := m.service.ListProposals(m.ctx, m.teamID)
		if err != nil {
			return snapshotLoadedMsg{err: err}
		}
		audits, err := m.service.ListRecentAudit(m.ctx, maxAuditLines)
		if err != nil {
			return snapshotLoadedMsg{err: err}
		}
		stamps, err := m.service.GetRecomputeStamps(m.ctx, m.teamID)
		if err != nil {
			return snapshotLoadedMsg{err: err}
		}
		return snapshotLoadedMsg{
			weights:   weights,
			equity:    equity,
			proposals: proposals,
			audits:    audits,
			stamps:    stamps,
		}
	}
}

func (m *teamModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedProposal()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		detail, err := m.service.GetProposal(m.ctx, selected.ID)
		if err != nil {
			return proposalDetailLoadedMsg{proposalID: selected.ID, err: err}
		}
		return proposalDetailLoadedMsg{proposalID: selected.ID, detail: detail}
	}
}

func (m *teamModel) recomputeCmd() tea.Cmd {
	return func() tea.Msg {
		weights, err := m.service.RecomputeTeamWeights(m.ctx, m.teamID)
		if err != nil {
			return recomputeDoneMsg{err: err}
		}
		shares, err := m.service.RecomputeTeamEquity(m.ctx, m.teamID, "")
		if err != nil {
			return recomputeDoneMsg{err: err}
		}
		return recomputeDoneMsg{weights: len(weights), shares: len(shares)}
	}
}

func (m *teamModel) selectedProposal() (domaingov.Proposal, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.proposals) {
		return domaingov.Proposal{}, false
	}
	return m.proposals[m.selectedIndex], true
}

func (m *teamModel) isCurrentSelected(proposalID string) bool {
	selected, ok := m.selectedProposal()
	return ok && selected.ID == proposalID
}

func sortProposalsNewestFirst(proposals []domaingov.Proposal) []domaingov.Proposal {
	sorted := make([]domaingov.Proposal, len(proposals))
	copy(sorted, proposals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func formatProposalLine(proposal domaingov.Proposal) string {
	marker := ""
	if proposal.Type == domaingov.ProposalTypeConstitutional {
		marker = " [const]"
	}
	return fmt.Sprintf("%s [%s]%s obj=%d title=%s",
		shortID(proposal.ID),
		proposal.Status,
		marker,
		len(proposal.Objections),
		proposal.Title,
	)
}

func equityByContributor(records []ports.EquityRecord) map[string]float64 {
	out := make(map[string]float64, len(records))
	for _, record := range records {
		out[record.ContributorID] = record.Percent
	}
	return out
}

func pipelineFlags(capApplied, decayApplied bool) string {
	flags := ""
	if capApplied {
		flags += " cap"
	}
	if decayApplied {
		flags += " decay"
	}
	return flags
}

// formatRecomputeStamps renders the cached recompute times, skipping
// stages that never ran.
func formatRecomputeStamps(stamps governance.RecomputeStamps) string {
	parts := make([]string, 0, 2)
	if !stamps.WeightsAt.IsZero() {
		parts = append(parts, "weights@"+stamps.WeightsAt.Format("01-02 15:04"))
	}
	if !stamps.EquityAt.IsZero() {
		parts = append(parts, "equity@"+stamps.EquityAt.Format("01-02 15:04"))
	}
	if len(parts) == 0 {
		return ""
	}
	return "recomputed " + strings.Join(parts, " ")
}

func clampIndex(index, length int) int {
	if length == 0 {
		return 0
	}
	if index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
