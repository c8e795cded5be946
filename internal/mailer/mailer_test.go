package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/TheFlashe/diplom-neto/internal/model"
	"github.com/TheFlashe/diplom-neto/pkg/config"
	"github.com/TheFlashe/diplom-neto/pkg/database"
)

func newTestMailer(t *testing.T) (*Mailer, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	// Empty host keeps the mailer in log-only mode.
	return New(db, config.SMTPConfig{From: "noreply@test.local"}, zap.NewNop()), db
}

func TestOrderStatusChangedLogOnly(t *testing.T) {
	m, db := newTestMailer(t)

	user := &model.User{Email: "buyer@example.com", Password: "hashed"}
	require.NoError(t, db.Create(user).Error)

	// Must not panic or error in log-only mode.
	m.OrderStatusChanged(user.ID, 42, model.StatusNew)
}

func TestOrderStatusChangedUnknownUser(t *testing.T) {
	m, _ := newTestMailer(t)

	// A missing recipient is swallowed; notifications never fail callers.
	m.OrderStatusChanged(999, 42, model.StatusNew)
}

func TestWelcomeLogOnly(t *testing.T) {
	m, _ := newTestMailer(t)
	m.Welcome("new@example.com")
}
