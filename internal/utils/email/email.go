package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/redipay/bridge-service/internal/config"
	"github.com/redipay/bridge-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender delivers plan lifecycle notifications via SMTP. Delivery is
// fire-and-forget: failures are logged and never propagated to the
// operation that triggered them.
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// PlanCreated notifies the owner that a new installment plan is active
func (s *Sender) PlanCreated(owner, planID string, totalAmount int64) {
	body := fmt.Sprintf(
		"Your installment plan %s has been created.\n"+
			"Total amount: %d\n"+
			"The full amount has been reserved from your collateral balance.\n",
		planID, totalAmount,
	)
	s.send(owner, "Installment Plan Created", body)
}

// InstallmentPaid notifies the owner that an installment was collected
func (s *Sender) InstallmentPaid(owner, planID string, number int, source models.PaymentSource) {
	body := fmt.Sprintf(
		"Installment %d of plan %s has been collected from your %s balance.\n"+
			"Collection time: %s\n",
		number, planID, source, time.Now().Format("2006-01-02 15:04:05"),
	)
	s.send(owner, "Installment Collected", body)
}

// PlanDefaulted notifies the owner that a collection failed and the plan
// has been defaulted
func (s *Sender) PlanDefaulted(owner, planID string, number int) {
	body := fmt.Sprintf(
		"Installment %d of plan %s could not be collected: insufficient funds in both balances.\n"+
			"The plan is now in default. Please contact support.\n",
		number, planID,
	)
	s.send(owner, "Installment Plan Defaulted", body)
}

func (s *Sender) send(to, subject, body string) {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte("Dear customer,\n\n" + body + "\nBest regards,\nBridge Service")

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return
	}

	s.logger.Infof("Email sent to %s: %s", to, subject)
}
