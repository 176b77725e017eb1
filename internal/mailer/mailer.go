// Package mailer sends user notification mail over plain SMTP.
// Sends run in background goroutines; failures are logged and never
// propagate into request handling.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"backend_boilerplate/internal/config"
	"backend_boilerplate/internal/logger"
)

type SMTPMailer struct {
	cfg     config.SMTPConfig
	baseURL string
	log     *logger.Logger

	// send is swappable in tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg config.SMTPConfig, baseURL string, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		baseURL: baseURL,
		log:     log,
		send:    smtp.SendMail,
	}
}

type mailData struct {
	Username string
	BaseURL  string
	ResetURL string
}

var templates = map[string]*template.Template{
	"new_account": template.Must(template.New("new_account").Parse(
		`<p>Hi {{.Username}},</p><p>your account at <a href="{{.BaseURL}}">{{.BaseURL}}</a> has been created.</p>`)),
	"welcome": template.Must(template.New("welcome").Parse(
		`<p>Welcome aboard, {{.Username}}!</p><p>You can now sign in at <a href="{{.BaseURL}}">{{.BaseURL}}</a>.</p>`)),
	"reset_password": template.Must(template.New("reset_password").Parse(
		`<p>Hi {{.Username}},</p><p>use <a href="{{.ResetURL}}">this link</a> to reset your password. It expires soon; ignore this mail if you did not request it.</p>`)),
	"password_changed": template.Must(template.New("password_changed").Parse(
		`<p>Hi {{.Username}},</p><p>your password was just changed. If this wasn't you, contact support immediately.</p>`)),
}

func (m *SMTPMailer) SendNewAccountEmail(email, username string) {
	m.dispatch(email, "Your new account", "new_account", mailData{Username: username, BaseURL: m.baseURL})
}

func (m *SMTPMailer) SendWelcomeEmail(email, username string) {
	m.dispatch(email, "Welcome!", "welcome", mailData{Username: username, BaseURL: m.baseURL})
}

func (m *SMTPMailer) SendResetPasswordEmail(email, username, token string) {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)
	m.dispatch(email, "Password recovery", "reset_password", mailData{Username: username, ResetURL: resetURL})
}

func (m *SMTPMailer) SendPasswordChangedEmail(email, username string) {
	m.dispatch(email, "Your password was changed", "password_changed", mailData{Username: username, BaseURL: m.baseURL})
}

// dispatch fires the send in the background. With no SMTP host configured
// mail is silently disabled, which keeps local development friction-free.
func (m *SMTPMailer) dispatch(to, subject, tmpl string, data mailData) {
	if !m.cfg.Enabled() {
		return
	}
	go func() {
		if err := m.deliver(to, subject, tmpl, data); err != nil {
			m.log.Errorw("mail_send_failed", "to", to, "template", tmpl, "err", err)
		}
	}()
}

func (m *SMTPMailer) deliver(to, subject, tmpl string, data mailData) error {
	var body bytes.Buffer
	if err := templates[tmpl].Execute(&body, data); err != nil {
		return fmt.Errorf("render %s template: %w", tmpl, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.FromEmail, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
