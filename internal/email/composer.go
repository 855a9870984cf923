package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// All message bodies share one skeleton: brand header, message body, dated
// copyright footer with an optional unsubscribe link. Caller-supplied text
// flows through html/template, which escapes it on output; nothing here
// concatenates raw strings into the document.
const skeletonTmpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Helvetica,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px;">
<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background-color:#111827;padding:20px 32px;">
<span style="color:#ffffff;font-size:20px;font-weight:bold;">Portfolio</span>
</td></tr>
<tr><td style="padding:32px;">
{{template "body" .}}
</td></tr>
<tr><td style="padding:20px 32px;background-color:#f9fafb;color:#6b7280;font-size:12px;">
&copy; {{.Year}} Portfolio. All rights reserved.
{{if .UnsubscribeURL}}<br><a href="{{.UnsubscribeURL}}" style="color:#6b7280;">Unsubscribe</a>{{end}}
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`

const digestBodyTmpl = `{{define "body"}}<p style="font-size:16px;color:#111827;">Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
<p style="font-size:14px;color:#374151;">A new {{.TypeLabel}} just went live:</p>
<h2 style="font-size:18px;color:#111827;margin:16px 0 8px;">{{.Title}}</h2>
{{if .Description}}<p style="font-size:14px;color:#374151;">{{.Description}}</p>{{end}}
{{if .CTAURL}}<p style="margin:24px 0;"><a href="{{.CTAURL}}" style="background-color:#111827;color:#ffffff;padding:10px 20px;border-radius:6px;text-decoration:none;font-size:14px;">Read it</a></p>{{end}}{{end}}`

const otpBodyTmpl = `{{define "body"}}<p style="font-size:16px;color:#111827;">Your password reset code:</p>
<p style="font-size:32px;letter-spacing:8px;font-weight:bold;color:#111827;margin:16px 0;">{{.Code}}</p>
<p style="font-size:14px;color:#374151;">This code expires in {{.ExpiryMinutes}} minutes. If you did not request a reset, ignore this email.</p>{{end}}`

var (
	digestTmpl = template.Must(template.Must(template.New("skeleton").Parse(skeletonTmpl)).Parse(digestBodyTmpl))
	otpTmpl    = template.Must(template.Must(template.New("skeleton").Parse(skeletonTmpl)).Parse(otpBodyTmpl))
)

type DigestData struct {
	RecipientName  string
	TypeLabel      string
	Title          string
	Description    string
	CTAURL         string
	UnsubscribeURL string
	Year           int
}

// ComposeDigest renders the new-content notification sent to newsletter
// subscribers.
func ComposeDigest(data DigestData) (string, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render digest email: %w", err)
	}
	return buf.String(), nil
}

// ComposeOTP renders the one-time password reset code email.
func ComposeOTP(code string, expiryMinutes int) (string, error) {
	data := struct {
		Code           string
		ExpiryMinutes  int
		Year           int
		UnsubscribeURL string
	}{
		Code:          code,
		ExpiryMinutes: expiryMinutes,
		Year:          time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := otpTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render otp email: %w", err)
	}
	return buf.String(), nil
}
