package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/TheFlashe/diplom-neto/internal/model"
	"github.com/TheFlashe/diplom-neto/pkg/config"
)

// Mailer sends account and order notifications over SMTP. Sends are
// best-effort: failures are logged and never surface to the caller. With an
// empty SMTP host the mailer runs in log-only mode, which is what local
// development and tests use.
type Mailer struct {
	db  *gorm.DB
	cfg config.SMTPConfig
	log *zap.Logger
}

func New(db *gorm.DB, cfg config.SMTPConfig, log *zap.Logger) *Mailer {
	return &Mailer{db: db, cfg: cfg, log: log}
}

// Welcome greets a freshly registered account.
func (m *Mailer) Welcome(email string) {
	subject := "Welcome to the marketplace"
	body := "Your account has been registered. You can now browse shops, fill your basket and place orders."
	m.send(email, subject, body)
}

// OrderStatusChanged mails the order's owner about its new status. The
// recipient is resolved from the user id so callers need only ids.
func (m *Mailer) OrderStatusChanged(userID, orderID uint, status model.OrderStatus) {
	var user model.User
	if err := m.db.First(&user, userID).Error; err != nil {
		m.log.Warn("order notification dropped, user lookup failed",
			zap.Uint("user_id", userID),
			zap.Uint("order_id", orderID),
			zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Order %d update", orderID)
	body := fmt.Sprintf("Your order %d is now %s.", orderID, status)
	m.send(user.Email, subject, body)
}

func (m *Mailer) send(to, subject, body string) {
	if m.cfg.Host == "" {
		m.log.Info("mail delivery disabled, logging only",
			zap.String("to", to),
			zap.String("subject", subject))
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		m.log.Error("mail delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	m.log.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
}
