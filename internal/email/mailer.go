package email

import (
	"fmt"
	"time"

	"finbridge/internal/config"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional email over SMTP. Every send is best effort:
// callers treat a failure as a logged event, never as a request failure.
// The circuit breaker keeps a flapping SMTP relay from stalling handlers.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	baseURL   string
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
	onFailure func()
}

// Sender is the outbound-mail surface services depend on.
type Sender interface {
	SendOTP(to, code, purpose string) error
	SendInvitation(buyerEmail, to, companyName, token string, message *string) error
	SendMilestone(to, subject, heading string, paragraphs []string) error
	SendBankingResubmission(to, companyName string, notes *string) error
}

// NewMailer builds the SMTP sender. onFailure is invoked once per failed
// delivery (metrics hook); nil is allowed.
func NewMailer(cfg *config.Config, logger *zap.Logger, onFailure func()) *Mailer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "smtp",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	if onFailure == nil {
		onFailure = func() {}
	}

	return &Mailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:      cfg.SMTPFrom,
		baseURL:   cfg.PublicURL,
		breaker:   breaker,
		logger:    logger,
		onFailure: onFailure,
	}
}

func (m *Mailer) send(to, subject, html string) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", html)
		return nil, m.dialer.DialAndSend(msg)
	})
	if err != nil {
		m.onFailure()
		m.logger.Warn("email delivery failed",
			zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
	return err
}

// SendOTP delivers a verification code for registration, login or password reset.
func (m *Mailer) SendOTP(to, code, purpose string) error {
	subject := "Your verification code"
	if purpose == "password_reset" {
		subject = "Your password reset code"
	}
	body := renderLayout(subject, fmt.Sprintf(
		`<p>Your one-time verification code is:</p>
		<p style="font-size:28px;font-weight:700;letter-spacing:6px">%s</p>
		<p>The code expires in 10 minutes. If you did not request it, ignore this email.</p>`, code), "", "")
	return m.send(to, subject, body)
}

// SendInvitation delivers a supplier onboarding invitation from a buyer.
func (m *Mailer) SendInvitation(buyerEmail, to, companyName, token string, message *string) error {
	link := fmt.Sprintf("%s/invitation?token=%s", m.baseURL, token)
	extra := ""
	if message != nil && *message != "" {
		extra = fmt.Sprintf("<p><em>%s</em></p>", *message)
	}
	body := renderLayout("You're invited to FinBridge", fmt.Sprintf(
		`<p>%s has invited %s to join their early-payment programme.</p>%s
		<p>The invitation is valid for 7 days.</p>`, buyerEmail, companyName, extra),
		"Accept Invitation", link)
	return m.send(to, "Supplier invitation from "+buyerEmail, body)
}

// SendMilestone notifies a buyer about an invited supplier's onboarding progress.
func (m *Mailer) SendMilestone(to, subject, heading string, paragraphs []string) error {
	html := ""
	for _, p := range paragraphs {
		html += "<p>" + p + "</p>"
	}
	return m.send(to, subject, renderLayout(heading, html, "Open Dashboard", m.baseURL+"/dashboard/buyer"))
}

// SendBankingResubmission asks a supplier to resubmit banking details.
func (m *Mailer) SendBankingResubmission(to, companyName string, notes *string) error {
	detail := ""
	if notes != nil && *notes != "" {
		detail = fmt.Sprintf("<p>Reviewer notes: %s</p>", *notes)
	}
	body := renderLayout("Banking details need attention", fmt.Sprintf(
		`<p>The banking details submitted for %s could not be verified and must be resubmitted.</p>%s`,
		companyName, detail), "Update Banking Details", m.baseURL+"/supplier/banking")
	return m.send(to, "Action required: resubmit banking details", body)
}

// renderLayout wraps body HTML in the branded email shell.
func renderLayout(heading, bodyHTML, ctaLabel, ctaHref string) string {
	cta := ""
	if ctaHref != "" {
		cta = fmt.Sprintf(
			`<div style="text-align:center;margin:28px 0 8px 0">
			 <a href="%s" style="background:#2563eb;color:#fff;text-decoration:none;padding:12px 20px;border-radius:12px;display:inline-block;font-weight:700">%s</a>
			 </div>`, ctaHref, ctaLabel)
	}
	return fmt.Sprintf(
		`<div style="font-family:-apple-system,Segoe UI,Roboto,Arial,sans-serif;max-width:640px;margin:0 auto;padding:24px">
		 <h2 style="margin:0 0 12px 0;font-size:22px">%s</h2>
		 <div style="color:#374151;line-height:1.6;font-size:14px">%s</div>%s
		 <p style="color:#9ca3af;font-size:12px;margin-top:24px">FinBridge • Secure Financial Services</p>
		 </div>`, heading, bodyHTML, cta)
}
