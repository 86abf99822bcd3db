package postgres

import (
	"github.com/espp/tuition-management/internal/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(log *audit.ActivityLog) error {
	return r.db.Create(log).Error
}

func (r *AuditRepository) Recent(limit int) ([]*audit.ActivityEntry, error) {
	var entries []*audit.ActivityEntry
	// LEFT JOIN: scheduled jobs log with actor 0, which has no user row.
	err := r.db.Raw(`
		SELECT al.id, al.action, al.description, COALESCE(u.full_name, 'system') AS actor_name, al.created_at
		FROM activity_logs al
		LEFT JOIN users u ON al.user_id = u.id
		ORDER BY al.created_at DESC
		LIMIT ?`, limit).Scan(&entries).Error
	return entries, err
}
