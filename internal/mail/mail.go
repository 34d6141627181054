package mail

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/jekabolt/farmgoods-reports/internal/entity"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

type Config struct {
	APIKey    string `mapstructure:"sendgrid_api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_email_name"`
	ReplyTo   string `mapstructure:"reply_to"`
}

// sender is the part of the sendgrid client used by Mailer.
type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type Mailer struct {
	cli       sender
	from      *mail.Email
	c         *Config
	templates *template.Template
}

var _ dependency.Mailer = (*Mailer)(nil)

func New(c *Config) (*Mailer, error) {
	if c.APIKey == "" || c.FromEmail == "" || c.FromName == "" {
		return nil, fmt.Errorf("incomplete mailer config: from=%q name=%q key set=%v", c.FromEmail, c.FromName, c.APIKey != "")
	}
	return newMailer(c, sendgrid.NewSendClient(c.APIKey))
}

func newMailer(c *Config, cli sender) (*Mailer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}
	return &Mailer{
		cli:       cli,
		from:      mail.NewEmail(c.FromName, c.FromEmail),
		c:         c,
		templates: tmpl,
	}, nil
}

func (m *Mailer) buildMail(to []string, subject, html string, attachment *entity.ExportFile) *mail.SGMailV3 {
	msg := mail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.Subject = subject
	msg.AddContent(mail.NewContent("text/html", html))
	if m.c.ReplyTo != "" {
		msg.SetReplyTo(mail.NewEmail(m.c.FromName, m.c.ReplyTo))
	}

	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	msg.AddPersonalizations(p)

	if attachment != nil && len(attachment.Data) > 0 {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(attachment.Data))
		a.SetType(attachment.ContentType)
		a.SetFilename(attachment.Name)
		a.SetDisposition("attachment")
		msg.AddAttachment(a)
	}
	return msg
}

// SendReport mails html to every recipient, with the optional attachment.
func (m *Mailer) SendReport(ctx context.Context, to []string, subject, html string, attachment *entity.ExportFile) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	resp, err := m.cli.SendWithContext(ctx, m.buildMail(to, subject, html, attachment))
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return gerr.ErrMailLimitReached
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("error sending email bad status code: %s, status code: %d", resp.Body, resp.StatusCode)
	}
	return nil
}
