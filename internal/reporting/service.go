package reporting

import (
	"log/slog"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/audit"
	"github.com/shopspring/decimal"
)

// Repository defines the aggregation queries behind the dashboard and
// student reports.
type Repository interface {
	CountStudents() (int64, error)
	CountPrograms() (int64, error)
	CountBillsByStatus() (map[string]int64, error)
	CountPendingPayments() (int64, error)
	CountConfirmedPayments() (int64, error)
	SumBilled() (decimal.Decimal, error)
	SumCollected() (decimal.Decimal, error)
	StudentReport(studentID int64) (*StudentReport, error)
	StudentStandings() ([]*StudentStanding, error)
}

type ActivityReader interface {
	Recent(limit int) ([]*audit.ActivityEntry, error)
}

type Service struct {
	repo       Repository
	activities ActivityReader
	logger     *slog.Logger
}

func NewService(repo Repository, activities ActivityReader, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		activities: activities,
		logger:     logger,
	}
}

// GetDashboardStats collects the admin dashboard counters. An empty
// database yields all zeroes, not an error.
func (s *Service) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		TotalBilled:    decimal.Zero,
		TotalCollected: decimal.Zero,
	}

	var err error
	if stats.TotalStudents, err = s.repo.CountStudents(); err != nil {
		return nil, apperrors.NewStorageError("failed to count students", err)
	}
	if stats.TotalPrograms, err = s.repo.CountPrograms(); err != nil {
		return nil, apperrors.NewStorageError("failed to count programs", err)
	}

	byStatus, err := s.repo.CountBillsByStatus()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to count bills", err)
	}
	for status, count := range byStatus {
		stats.TotalBills += count
		switch status {
		case "pending":
			stats.PendingBills = count
		case "paid":
			stats.PaidBills = count
		case "overdue":
			stats.OverdueBills = count
		}
	}

	if stats.PendingPayments, err = s.repo.CountPendingPayments(); err != nil {
		return nil, apperrors.NewStorageError("failed to count pending payments", err)
	}
	if stats.ConfirmedPayments, err = s.repo.CountConfirmedPayments(); err != nil {
		return nil, apperrors.NewStorageError("failed to count confirmed payments", err)
	}
	if stats.TotalBilled, err = s.repo.SumBilled(); err != nil {
		return nil, apperrors.NewStorageError("failed to sum billed amount", err)
	}
	if stats.TotalCollected, err = s.repo.SumCollected(); err != nil {
		return nil, apperrors.NewStorageError("failed to sum collected amount", err)
	}

	return stats, nil
}

// GetStudentReport summarizes one student's billing standing.
func (s *Service) GetStudentReport(studentID int64) (*StudentReport, error) {
	report, err := s.repo.StudentReport(studentID)
	if err != nil {
		s.logger.Error("failed to build student report", "error", err, "student_id", studentID)
		return nil, apperrors.NewStorageError("failed to build student report", err)
	}
	return report, nil
}

// GetStudentStandings lists every student with their bill counts for the
// staff report.
func (s *Service) GetStudentStandings() ([]*StudentStanding, error) {
	rows, err := s.repo.StudentStandings()
	if err != nil {
		s.logger.Error("failed to build student standings", "error", err)
		return nil, apperrors.NewStorageError("failed to build student standings", err)
	}
	if rows == nil {
		rows = []*StudentStanding{}
	}
	return rows, nil
}

// GetRecentActivities returns the latest audit entries, newest first.
func (s *Service) GetRecentActivities(limit int) ([]*audit.ActivityEntry, error) {
	entries, err := s.activities.Recent(limit)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load recent activities", err)
	}
	if entries == nil {
		entries = []*audit.ActivityEntry{}
	}
	return entries, nil
}
