// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/taibuivan/dublinbikes/internal/platform/mailer"
)

// VerificationSubject is the subject line of every verification message.
const VerificationSubject = "[Dublin Bikes] Verify your email to start riding"

// verificationData feeds both templates.
type verificationData struct {
	Code           string
	ExpiresMinutes int
	ActivationLink string
}

var verificationText = texttemplate.Must(texttemplate.New("verification_text").Parse(
	`Hi there! Thanks for signing up for Dublin Bikes.

Your verification code is: {{.Code}}

This code will expire in {{.ExpiresMinutes}} minutes.
{{if .ActivationLink}}
Or click this link to verify your email: {{.ActivationLink}}
{{end}}
If you didn't sign up for an account, please ignore this message.
`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("verification_html").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Verify your email</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="text-align: center;">Welcome to Dublin Bikes</h1>
    <p>Your verification code is:</p>
    <p style="font-size: 28px; font-weight: 700; letter-spacing: 6px; text-align: center;">{{.Code}}</p>
    <p>This code will expire in {{.ExpiresMinutes}} minutes.</p>
    {{if .ActivationLink}}
    <p style="text-align: center;">
        <a href="{{.ActivationLink}}" style="display: inline-block; padding: 14px 28px; background: #1DB954; color: #ffffff; text-decoration: none; border-radius: 10px;">Verify my email</a>
    </p>
    {{end}}
    <p style="font-size: 12px; color: #777;">If you didn't sign up for an account, please ignore this message.</p>
</body>
</html>
`))

// ActivationLink builds {frontendBaseURL}/activate/{token}.
func ActivationLink(frontendBaseURL, token string) string {
	if token == "" {
		return ""
	}
	return strings.TrimRight(frontendBaseURL, "/") + "/activate/" + url.PathEscape(token)
}

// renderVerificationMail builds the verification message for one recipient.
func renderVerificationMail(to, code string, expiresMinutes int, activationLink string) (mailer.Message, error) {
	data := verificationData{
		Code:           code,
		ExpiresMinutes: expiresMinutes,
		ActivationLink: activationLink,
	}

	var text bytes.Buffer
	if err := verificationText.Execute(&text, data); err != nil {
		return mailer.Message{}, fmt.Errorf("auth_mail_render_text_failed: %w", err)
	}

	var html bytes.Buffer
	if err := verificationHTML.Execute(&html, data); err != nil {
		return mailer.Message{}, fmt.Errorf("auth_mail_render_html_failed: %w", err)
	}

	return mailer.Message{
		To:       to,
		Subject:  VerificationSubject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
