package core

import (
	"bytes"
	"net/mail"
	texttmpl "text/template"
)

var templates = map[string]*texttmpl.Template{
	"welcome": texttmpl.Must(texttmpl.New("welcome").Parse(welcomeTmpl)),
}

const welcomeTmpl = `Hello {{ .Name }},

An account has been created for you at {{ .SchoolName }}.

    Username: {{ .Username }}
    Password: {{ .Password }}

Please log in and change your password as soon as possible.
`

type (
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.TemplateData); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }
