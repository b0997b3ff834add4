package main

import (
	"bytes"
	"html/template"

	"github.com/go-mail/mail/v2"
	"github.com/rs/zerolog"
)

const welcomeTemplate = `
{{define "subject"}}Welcome to the task app!{{end}}
{{define "plainBody"}}Welcome to the app, {{.Name}}. Let me know how you get along with it.{{end}}
{{define "htmlBody"}}<p>Welcome to the app, {{.Name}}. Let me know how you get along with it.</p>{{end}}`

const farewellTemplate = `
{{define "subject"}}Sorry to see you go!{{end}}
{{define "plainBody"}}It seems you deleted your account, {{.Name}}. Thank you for using the app!{{end}}
{{define "htmlBody"}}<p>It seems you deleted your account, {{.Name}}. Thank you for using the app!</p>{{end}}`

var (
	welcomeTmpl  = template.Must(template.New("welcome").Parse(welcomeTemplate))
	farewellTmpl = template.Must(template.New("farewell").Parse(farewellTemplate))
)

type mailer struct {
	dialer *mail.Dialer
	sender string
	logger zerolog.Logger
}

func newMailer(host string, port int, username, password, sender string, logger zerolog.Logger) *mailer {
	return &mailer{
		dialer: mail.NewDialer(host, port, username, password),
		sender: sender,
		logger: logger,
	}
}

// sendWelcome and sendFarewell are fire-and-forget: delivery failures are
// logged and never fail the request that triggered them.
func (m *mailer) sendWelcome(u *user) {
	m.sendAsync(u.Email, welcomeTmpl, u)
}

func (m *mailer) sendFarewell(u *user) {
	m.sendAsync(u.Email, farewellTmpl, u)
}

func (m *mailer) sendAsync(to string, tmpl *template.Template, data any) {
	if m == nil {
		return
	}
	go func() {
		err := m.send(to, tmpl, data)
		if err != nil {
			m.logger.Err(err).Str("to", to).Msg("could not send email")
		}
	}()
}

func (m *mailer) send(to string, tmpl *template.Template, data any) error {
	var subject bytes.Buffer
	err := tmpl.ExecuteTemplate(&subject, "subject", data)
	if err != nil {
		return err
	}
	var plainBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&plainBody, "plainBody", data)
	if err != nil {
		return err
	}
	var htmlBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}
