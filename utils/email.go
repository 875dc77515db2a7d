// utils/email.go
package utils

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go-storefront/config"
	"go-storefront/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// ErrMailNotConfigured is returned when the selected provider has no credentials
var ErrMailNotConfigured = errors.New("email credentials are not configured")

// Mailer delivers a single HTML email
type Mailer interface {
	SendEmail(toEmail, subject, htmlContent string) error
}

// NewMailer builds the provider selected by cfg.Provider
func NewMailer(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Provider {
	case config.MailSendGrid:
		if cfg.SendGridAPIKey == "" || cfg.From() == "" {
			return nil, fmt.Errorf("sendgrid: %w", ErrMailNotConfigured)
		}
		return &SendGridMailer{client: sendgrid.NewSendClient(cfg.SendGridAPIKey), fromName: cfg.FromName, from: cfg.From()}, nil
	case config.MailPostmark:
		if cfg.PostmarkToken == "" || cfg.From() == "" {
			return nil, fmt.Errorf("postmark: %w", ErrMailNotConfigured)
		}
		return &PostmarkMailer{client: postmark.NewClient(cfg.PostmarkToken, ""), fromName: cfg.FromName, from: cfg.From()}, nil
	default:
		if cfg.User == "" || cfg.Password == "" {
			return nil, fmt.Errorf("smtp: %w", ErrMailNotConfigured)
		}
		// App passwords are displayed in groups of four; the spaces are not part of the secret.
		pass := strings.Join(strings.Fields(cfg.Password), "")
		return &SMTPMailer{
			dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, strings.TrimSpace(cfg.User), pass),
			fromName: cfg.FromName,
			from:     cfg.From(),
		}, nil
	}
}

// SMTPMailer sends through an authenticated SMTP relay such as Gmail
type SMTPMailer struct {
	dialer   *gomail.Dialer
	fromName string
	from     string
}

func (m *SMTPMailer) SendEmail(toEmail, subject, htmlContent string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", strings.TrimSpace(toEmail))
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlContent)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

func (m *SendGridMailer) SendEmail(toEmail, subject, htmlContent string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		subject,
		mail.NewEmail("", strings.TrimSpace(toEmail)),
		"",
		htmlContent,
	)
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// PostmarkMailer sends through the Postmark API
type PostmarkMailer struct {
	client   *postmark.Client
	fromName string
	from     string
}

func (m *PostmarkMailer) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     fmt.Sprintf("%s <%s>", m.fromName, m.from),
		To:       strings.TrimSpace(toEmail),
		Subject:  subject,
		HtmlBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var emailTemplates = template.Must(template.New("mail").Parse(`
{{define "layout_start"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #1B6B3A 0%, #2d8650 100%); padding: 20px; border-radius: 10px 10px 0 0; text-align: center;">
    <h1 style="color: white; margin: 0;">{{.Store}}</h1>
  </div>
  <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; border: 1px solid #e0e0e0;">{{end}}
{{define "layout_end"}}  </div>
</div>{{end}}
{{define "otp"}}{{template "layout_start" .}}
    <h2 style="color: #1B6B3A; margin-top: 0;">OTP Verification</h2>
    <p style="color: #666; font-size: 16px;">Your OTP for account verification is:</p>
    <div style="background: white; border: 2px solid #1B6B3A; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0;">
      <h1 style="color: #1B6B3A; font-size: 36px; letter-spacing: 8px; margin: 0; font-family: monospace;">{{.Code}}</h1>
    </div>
    <p style="color: #666; font-size: 14px;">This OTP will expire in {{.Minutes}} minutes.</p>
    <p style="color: #999; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #e0e0e0;">If you didn't request this OTP, please ignore this email.</p>
{{template "layout_end"}}{{end}}
{{define "order_paid"}}{{template "layout_start" .}}
    <h2 style="color: #1B6B3A; margin-top: 0;">Order Confirmation</h2>
    <p>Dear {{.Name}},</p>
    <p>Thank you for your purchase! Your payment for order <strong>{{.OrderID}}</strong> has been received.</p>
    <p>Items: <strong>{{.ItemCount}}</strong><br>Total Amount: <strong>&#8377;{{printf "%.2f" .Total}}</strong></p>
    <p>We will let you know as soon as it is delivered.</p>
{{template "layout_end"}}{{end}}
{{define "order_delivered"}}{{template "layout_start" .}}
    <h2 style="color: #1B6B3A; margin-top: 0;">Order Delivered</h2>
    <p>Dear {{.Name}},</p>
    <p>Your order <strong>{{.OrderID}}</strong> has been delivered. Thank you for shopping with us!</p>
{{template "layout_end"}}{{end}}
`))

// OrderMail carries what the order notifications show
type OrderMail struct {
	Name      string
	OrderID   string
	ItemCount int
	Total     float64
}

// EmailService renders the store's notifications and hands them to a Mailer
type EmailService struct {
	mailer Mailer
	store  string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(mailer Mailer, storeName string) *EmailService {
	return &EmailService{mailer: mailer, store: storeName}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es.mailer == nil {
		return ErrMailNotConfigured
	}
	if err := es.mailer.SendEmail(toEmail, subject, htmlContent); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("Email sent")
	return nil
}

// SendOTPEmail sends the registration code
func (es *EmailService) SendOTPEmail(toEmail, code string) error {
	body, err := es.render("otp", map[string]any{
		"Store":   es.store,
		"Code":    code,
		"Minutes": int(models.OTPTTL / time.Minute),
	})
	if err != nil {
		return err
	}
	return es.SendEmail(toEmail, fmt.Sprintf("OTP for Account Verification - %s", es.store), body)
}

// SendOrderConfirmationEmail tells the customer their payment went through
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order OrderMail) error {
	body, err := es.render("order_paid", es.orderData(order))
	if err != nil {
		return err
	}
	return es.SendEmail(toEmail, fmt.Sprintf("Order Confirmation - %s", es.store), body)
}

// SendDeliveryEmail tells the customer their order arrived
func (es *EmailService) SendDeliveryEmail(toEmail string, order OrderMail) error {
	body, err := es.render("order_delivered", es.orderData(order))
	if err != nil {
		return err
	}
	return es.SendEmail(toEmail, fmt.Sprintf("Order Delivered - %s", es.store), body)
}

func (es *EmailService) orderData(order OrderMail) map[string]any {
	return map[string]any{
		"Store":     es.store,
		"Name":      order.Name,
		"OrderID":   order.OrderID,
		"ItemCount": order.ItemCount,
		"Total":     order.Total,
	}
}

func (es *EmailService) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}
