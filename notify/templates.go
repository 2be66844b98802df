package notify

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<p>Hello {{.Name}},</p>
{{template "content" .}}
<p style="margin-top: 20px; font-size: 12px; color: #777;">This is an automated message, please do not reply.</p>
</body>
</html>{{end}}`

var emailBodies = map[string]string{
	"otp": `{{define "content"}}<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>The code expires at {{.Expiry}}. If you did not request it, ignore this email.</p>{{end}}`,
	"reset": `{{define "content"}}<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>The link expires at {{.Expiry}}. If you did not request a reset, ignore this email.</p>{{end}}`,
	"reset_confirmation": `{{define "content"}}<p>Your password was reset. If this was not you, contact support immediately.</p>{{end}}`,
	"password_changed": `{{define "content"}}<p>Your password was changed. If this was not you, reset your password now.</p>{{end}}`,
	"verification": `{{define "content"}}<p>Please confirm your email address.</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>The link expires at {{.Expiry}}.</p>{{end}}`,
	"welcome": `{{define "content"}}<p>Your account is ready.</p>{{end}}`,
}

const smsOTP = `Your verification code is {{.Code}}. It expires in {{.Minutes}} min.`

type templates struct {
	email map[string]*template.Template
	sms   *texttemplate.Template
}

func parseTemplates() *templates {
	t := &templates{email: make(map[string]*template.Template, len(emailBodies))}
	for name, body := range emailBodies {
		tmpl := template.Must(template.New(name).Parse(emailLayout))
		t.email[name] = template.Must(tmpl.Parse(body))
	}
	t.sms = texttemplate.Must(texttemplate.New("sms_otp").Parse(smsOTP))
	return t
}

func (t *templates) renderEmail(name string, data any) (string, error) {
	tmpl, ok := t.email[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (t *templates) renderSMS(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.sms.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render sms: %w", err)
	}
	return buf.String(), nil
}
