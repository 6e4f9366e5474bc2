package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/queue"
)

var recoveryTmpl = template.Must(template.New("recovery").Parse(`<p>Hello {{.Email}},</p>
<p>We received a request to recover the password of your {{.Project}} account.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>This link expires in {{.Hours}} hours. If you did not request a reset you can ignore this message.</p>
`))

var newAccountTmpl = template.Must(template.New("new_account").Parse(`<p>Welcome to {{.Project}}.</p>
<p>An account was created for <b>{{.Email}}</b>.</p>
<p><a href="{{.Link}}">Sign in</a></p>
`))

// Mailer renders account mail.  Bodies are HTML with all values escaped.
type Mailer struct {
	ProjectName  string
	FrontendHost string
}

func (m Mailer) project() string {
	if m.ProjectName == "" {
		return "eventdesk"
	}
	return m.ProjectName
}

// pathPrefix keeps organizer links apart from user links on the frontend.
func pathPrefix(v model.Variant) string {
	if v == model.VariantOrganizer {
		return "/organizer"
	}
	return ""
}

// Recovery renders the password recovery message carrying token.
func (m Mailer) Recovery(v model.Variant, email, token string, ttl time.Duration) (queue.MailMessage, error) {
	link := fmt.Sprintf("%s%s/reset-password?token=%s", strings.TrimRight(m.FrontendHost, "/"), pathPrefix(v), token)
	var buf bytes.Buffer
	err := recoveryTmpl.Execute(&buf, map[string]any{
		"Email":   email,
		"Project": m.project(),
		"Link":    link,
		"Hours":   int(ttl.Hours()),
	})
	if err != nil {
		return queue.MailMessage{}, fmt.Errorf("render recovery mail: %w", err)
	}
	return queue.MailMessage{
		Kind:    queue.KindPasswordRecovery,
		Variant: string(v),
		To:      email,
		Subject: fmt.Sprintf("%s - Password recovery for %s %s", m.project(), v, email),
		HTML:    buf.String(),
	}, nil
}

// NewAccount renders the welcome message sent after an administrator
// creates a principal.
func (m Mailer) NewAccount(v model.Variant, email string) (queue.MailMessage, error) {
	link := fmt.Sprintf("%s%s/login", strings.TrimRight(m.FrontendHost, "/"), pathPrefix(v))
	var buf bytes.Buffer
	err := newAccountTmpl.Execute(&buf, map[string]any{
		"Email":   email,
		"Project": m.project(),
		"Link":    link,
	})
	if err != nil {
		return queue.MailMessage{}, fmt.Errorf("render new account mail: %w", err)
	}
	return queue.MailMessage{
		Kind:    queue.KindNewAccount,
		Variant: string(v),
		To:      email,
		Subject: fmt.Sprintf("%s - New account for %s %s", m.project(), v, email),
		HTML:    buf.String(),
	}, nil
}
