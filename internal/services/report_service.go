package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
)

// ReportService builds the read-only aggregations: dashboards, the
// inventory report, the monthly loan report, and the CSV export.
type ReportService struct {
	Items *repos.ItemRepo
	Loans *repos.LoanRepo
	Orgs  *repos.OrgRepo
	Users *repos.UserRepo
}

func NewReportService(items *repos.ItemRepo, loans *repos.LoanRepo, orgs *repos.OrgRepo, users *repos.UserRepo) *ReportService {
	return &ReportService{Items: items, Loans: loans, Orgs: orgs, Users: users}
}

// OrgDashboard is the admin-org landing payload.
type OrgDashboard struct {
	Stats        map[string]int `json:"stats"`
	RecentLoans  []domain.Loan  `json:"recent_loans"`
	PendingLoans []domain.Loan  `json:"pending_loans"`
}

func (s *ReportService) OrgDashboard(actor domain.Actor) (*OrgDashboard, error) {
	orgID := actor.OrganizationID

	items, err := s.Items.ListByOrg(orgID, repos.ItemFilter{})
	if err != nil {
		return nil, err
	}
	loanable := 0
	for _, it := range items {
		if it.Available() {
			loanable++
		}
	}

	counts, err := s.Loans.StatusCounts(orgID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	completed := counts[domain.StatusCompleted] + counts[domain.StatusCompletedDamaged] + counts[domain.StatusCompletedLost]

	recent, err := s.Loans.ListByOrg(orgID, repos.LoanFilter{Limit: 5})
	if err != nil {
		return nil, err
	}
	pending, err := s.Loans.ListByOrg(orgID, repos.LoanFilter{Status: domain.StatusPending, Limit: 5})
	if err != nil {
		return nil, err
	}

	return &OrgDashboard{
		Stats: map[string]int{
			"total_items":     len(items),
			"loanable_items":  loanable,
			"total_loans":     total,
			"pending_loans":   counts[domain.StatusPending],
			"active_loans":    counts[domain.StatusBorrowed],
			"return_pending":  counts[domain.StatusReturnPending],
			"completed_loans": completed,
		},
		RecentLoans:  recent,
		PendingLoans: pending,
	}, nil
}

// MasterDashboard is the admin-master landing payload.
type MasterDashboard struct {
	Stats      map[string]int      `json:"stats"`
	RecentLogs []domain.AuditEntry `json:"recent_logs"`
}

func (s *ReportService) MasterDashboard(audit *repos.AuditRepo) (*MasterDashboard, error) {
	totalOrgs, activeOrgs, err := s.Orgs.Counts()
	if err != nil {
		return nil, err
	}
	totalAdmins, activeAdmins, err := s.Users.AdminCounts()
	if err != nil {
		return nil, err
	}
	items, err := s.Items.ListAll(0)
	if err != nil {
		return nil, err
	}
	counts, err := s.Loans.StatusCounts(0)
	if err != nil {
		return nil, err
	}
	totalLoans := 0
	for _, n := range counts {
		totalLoans += n
	}
	logs, err := audit.Recent(10)
	if err != nil {
		return nil, err
	}

	return &MasterDashboard{
		Stats: map[string]int{
			"total_organizations":  totalOrgs,
			"active_organizations": activeOrgs,
			"total_admins":         totalAdmins,
			"active_admins":        activeAdmins,
			"total_items":          len(items),
			"total_loans":          totalLoans,
			"active_loans":         counts[domain.StatusBorrowed],
			"pending_loans":        counts[domain.StatusPending],
		},
		RecentLogs: logs,
	}, nil
}

// InventoryReport aggregates an org's stock totals plus per-item rows.
type InventoryReport struct {
	Summary repos.InventorySummary `json:"summary"`
	Items   []domain.Item          `json:"items"`
}

func (s *ReportService) Inventory(actor domain.Actor) (*InventoryReport, error) {
	summary, err := s.Items.Summary(actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	items, err := s.Items.ListByOrg(actor.OrganizationID, repos.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return &InventoryReport{Summary: summary, Items: items}, nil
}

// LoanReport is the monthly loan summary.
type LoanReport struct {
	Period  map[string]int `json:"period"`
	Summary map[string]int `json:"summary"`
	Loans   []domain.Loan  `json:"loans"`
}

func (s *ReportService) LoansByMonth(actor domain.Actor, year, month int) (*LoanReport, error) {
	if month < 1 || month > 12 {
		return nil, domain.Validationf("month must be between 1 and 12")
	}
	if year < 2020 || year > 2100 {
		return nil, domain.Validationf("year must be between 2020 and 2100")
	}

	loans, err := s.Loans.ListByMonth(actor.OrganizationID, year, month)
	if err != nil {
		return nil, err
	}

	summary := map[string]int{"total_loans": len(loans)}
	for _, l := range loans {
		switch l.Status {
		case domain.StatusRejected:
			summary["rejected"]++
		case domain.StatusPending:
		default:
			summary["approved"]++
		}
		switch l.Status {
		case domain.StatusCompleted, domain.StatusCompletedDamaged, domain.StatusCompletedLost:
			summary["completed"]++
		}
		if l.Status == domain.StatusCompletedDamaged {
			summary["damaged"]++
		}
		if l.Status == domain.StatusCompletedLost {
			summary["lost"]++
		}
	}

	return &LoanReport{
		Period:  map[string]int{"month": month, "year": year},
		Summary: summary,
		Loans:   loans,
	}, nil
}

// ExportItemsCSV streams an org's items as a UTF-8 CSV (with BOM for
// spreadsheet compatibility).
func (s *ReportService) ExportItemsCSV(actor domain.Actor, w io.Writer) error {
	items, err := s.Items.ListByOrg(actor.OrganizationID, repos.ItemFilter{})
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Code", "Name", "Category", "Total Stock", "Available Stock", "Condition", "Loanable", "Description"}); err != nil {
		return err
	}
	for _, it := range items {
		loanable := "yes"
		if !it.IsLoanable {
			loanable = "no"
		}
		rec := []string{
			it.Code, it.Name, it.Category,
			fmt.Sprintf("%d", it.Stock), fmt.Sprintf("%d", it.AvailableStock),
			string(it.Condition), loanable, it.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
