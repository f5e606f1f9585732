package database

import (
	"fmt"
	"log"
	"strings"

	"kpr-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey — the application-number and duplicate-pending
// backstops depend on it.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.Property{},
		&model.RatePlan{},
		&model.ApprovalLevel{},
		&model.LoanApplication{},
		&model.ApprovalWorkflow{},
		&model.AuditLog{},
		&model.SystemNotification{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	// Partial unique index: at most one non-terminal application per
	// (user, property). Backstop for the duplicate-pending check; the
	// check-then-act in the submission transaction is not enough on its own.
	quoted := make([]string, 0, len(model.NonTerminalAppStatuses))
	for _, s := range model.NonTerminalAppStatuses {
		quoted = append(quoted, "'"+s+"'")
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_loan_applications_one_pending "+
			"ON loan_applications (user_id, property_id) WHERE status IN (%s)",
		strings.Join(quoted, ","))
	if err := db.Exec(stmt).Error; err != nil {
		log.Println("WARNING: Failed to create duplicate-pending index:", err)
	}

	return db, nil
}
