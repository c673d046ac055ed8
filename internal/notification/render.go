// Package notification renders the two emails sent for every inquiry. It
// has no transport dependencies so both HTTP entry points share it.
package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"medhive-backend/internal/domain"
	"medhive-backend/pkg/email"
)

const operatorHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Partnership Inquiry</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0b7a75; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .label { font-weight: bold; color: #555; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #0b7a75; margin-top: 10px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>New Partnership Inquiry</h1></div>
        <div class="content">
            <p><span class="label">Organization:</span> {{.OrganizationName}}</p>
            <p><span class="label">Email:</span> {{.ContactEmail}}</p>
            <p class="label">Message:</p>
            <div class="message-box">{{nl2br .Message}}</div>
        </div>
        <div class="footer">
            <p>Sent from the MedHive contact form. Reply to this email to reach {{.ContactEmail}}.</p>
        </div>
    </div>
</body>
</html>`

const inquirerHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>We received your inquiry</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0b7a75; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #0b7a75; margin-top: 10px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Thank you for contacting MedHive</h1></div>
        <div class="content">
            <p>Hello {{.OrganizationName}},</p>
            <p>We have received your inquiry and our partnerships team will get back to you shortly.</p>
            <p>For your records, here is the message you sent:</p>
            <div class="message-box">{{nl2br .Message}}</div>
        </div>
        <div class="footer"><p>MedHive Partnerships</p></div>
    </div>
</body>
</html>`

const operatorText = `New partnership inquiry

Organization: {{.OrganizationName}}
Email: {{.ContactEmail}}

{{.Message}}
`

const inquirerText = `Hello {{.OrganizationName}},

We have received your inquiry and our partnerships team will get back to you shortly.

Your message:

{{.Message}}

MedHive Partnerships
`

var funcs = template.FuncMap{"nl2br": nl2br}

var (
	htmlTemplates = map[domain.RecipientRole]*template.Template{
		domain.RoleOperator: template.Must(template.New("operator").Funcs(funcs).Parse(operatorHTML)),
		domain.RoleInquirer: template.Must(template.New("inquirer").Funcs(funcs).Parse(inquirerHTML)),
	}
	textTemplates = map[domain.RecipientRole]*texttemplate.Template{
		domain.RoleOperator: texttemplate.Must(texttemplate.New("operator").Parse(operatorText)),
		domain.RoleInquirer: texttemplate.Must(texttemplate.New("inquirer").Parse(inquirerText)),
	}
)

// Subject returns the subject line for role.
func Subject(inquiry domain.Inquiry, role domain.RecipientRole) string {
	if role == domain.RoleOperator {
		return fmt.Sprintf("New Partnership Inquiry from %s", inquiry.OrganizationName)
	}
	return fmt.Sprintf("We received your inquiry, %s", inquiry.OrganizationName)
}

// Render builds the message for one recipient. operatorAddress is the
// MedHive inbox; the inquirer is addressed at inquiry.ContactEmail.
func Render(inquiry domain.Inquiry, role domain.RecipientRole, operatorAddress string) (email.Message, error) {
	htmlTmpl, ok := htmlTemplates[role]
	if !ok {
		return email.Message{}, fmt.Errorf("unknown recipient role %q", role)
	}

	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, inquiry); err != nil {
		return email.Message{}, fmt.Errorf("failed to execute %s template: %w", role, err)
	}
	var text bytes.Buffer
	if err := textTemplates[role].Execute(&text, inquiry); err != nil {
		return email.Message{}, fmt.Errorf("failed to execute %s text template: %w", role, err)
	}

	msg := email.Message{
		Subject: Subject(inquiry, role),
		HTML:    html.String(),
		Text:    text.String(),
	}
	switch role {
	case domain.RoleOperator:
		msg.To = operatorAddress
		msg.ReplyTo = inquiry.ContactEmail
	case domain.RoleInquirer:
		msg.To = inquiry.ContactEmail
		msg.ReplyTo = operatorAddress
	}
	return msg, nil
}

// nl2br escapes s and turns line breaks into <br> tags.
func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = template.HTMLEscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}
