package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/vzolin/cashplan-service/internal/config"
)

// Sender handles sending emails via SMTP
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

// SendPaymentReminder notifies about an upcoming order payment (a deposit
// or the balance payment)
func (s *Sender) SendPaymentReminder(to, orderTitle string, paymentDate time.Time, amount float64, isDeposit bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isDeposit {
		e.Subject = "Напоминание об авансе поставщику"
	} else {
		e.Subject = "Напоминание об оплате заказа"
	}

	body := "Здравствуйте!\n\n"
	if isDeposit {
		body += fmt.Sprintf(
			"По заказу «%s» %s должен быть оплачен аванс на сумму %.2f руб.\n"+
				"Проверьте, что на счетах достаточно средств.\n",
			orderTitle, paymentDate.Format("2006-01-02"), amount,
		)
	} else {
		body += fmt.Sprintf(
			"По заказу «%s» %s наступает срок доплаты на сумму %.2f руб.\n"+
				"Проверьте, что на счетах достаточно средств.\n",
			orderTitle, paymentDate.Format("2006-01-02"), amount,
		)
	}
	body += "\n— Сервис планирования денежных потоков"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send reminder to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendCashGapAlert warns that the projected balance goes negative within
// the planning horizon
func (s *Sender) SendCashGapAlert(to string, cashGap, minBalance float64) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Внимание: прогнозируется кассовый разрыв"

	body := fmt.Sprintf(
		"Здравствуйте!\n\n"+
			"По текущему плану денежных потоков прогнозируется кассовый разрыв.\n"+
			"Минимальный остаток: %.2f руб.\n"+
			"Размер разрыва: %.2f руб.\n"+
			"Рекомендуется перенести платежи или ускорить поступления.\n"+
			"\n— Сервис планирования денежных потоков",
		minBalance, cashGap,
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send cash gap alert to %s: %v", to, err)
		return fmt.Errorf("failed to send cash gap alert: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
