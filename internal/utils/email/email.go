package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/asset-service/internal/config"
	"github.com/Dan9191/asset-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender, or nil when no SMTP host is configured
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendBalanceNotification tells the owner that an asset balance changed by delta
func (s *Sender) SendBalanceNotification(to string, asset *models.Asset, delta decimal.Decimal) error {
	e := s.balanceEmail(to, asset, delta)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send balance notification to %s: %v", to, err)
		return fmt.Errorf("failed to send balance notification: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) balanceEmail(to string, asset *models.Asset, delta decimal.Decimal) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}

	var body string
	if delta.IsNegative() {
		e.Subject = fmt.Sprintf("%s Debit Notification", asset.Name)
		body = fmt.Sprintf("An amount of %s has been debited from your asset %s.\n", delta.Abs(), asset.Name)
	} else {
		e.Subject = fmt.Sprintf("%s Credit Notification", asset.Name)
		body = fmt.Sprintf("Your asset %s has been credited with %s.\n", asset.Name, delta)
	}
	body += fmt.Sprintf(
		"Transaction time: %s\n"+
			"Current balance: %s\n",
		asset.UpdatedAt.Format(time.DateTime), asset.Balance,
	)
	body += "\nBest regards,\nAsset Service"
	e.Text = []byte(body)
	return e
}
