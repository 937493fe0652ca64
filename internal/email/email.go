// Package email renders the branded auth email templates uploaded to the
// backend's email settings.
package email

import (
	"bytes"
	"fmt"
	"text/template"
	"os"
	"path/filepath"
)

// DefaultDir is where the CLI writes rendered files.
const DefaultDir = "email-templates"

// Backend placeholders. They are written into the output verbatim and
// expanded by the auth backend when it sends mail.
const (
	ConfirmationURL = "{{ .ConfirmationURL }}"
	Token           = "{{ .Token }}"
	NewEmail        = "{{ .NewEmail }}"
	SiteURL         = "{{ .SiteURL }}"
)

// Template is one auth email.
type Template struct {
	Name     string
	Subject  string
	Heading  string
	Intro    string
	Action   string
	URL      string
	Footnote string
	// Code shows a one-time code block instead of a button.
	Code string
}

// Templates lists every auth email in output order.
func Templates() []Template {
	return []Template{
		{
			Name:     "confirm-signup",
			Subject:  "Confirm your Lockstep account",
			Heading:  "Welcome to Lockstep",
			Intro:    "Thanks for signing up. Confirm your email address to start planning your event.",
			Action:   "Confirm email",
			URL:      ConfirmationURL,
			Footnote: "If you didn't create an account, you can ignore this email.",
		},
		{
			Name:     "invite-user",
			Subject:  "You've been invited to Lockstep",
			Heading:  "You're invited",
			Intro:    "Someone has invited you to help organise an event on Lockstep. Accept the invite to set up your account.",
			Action:   "Accept invite",
			URL:      ConfirmationURL,
			Footnote: "This invite was sent from " + SiteURL + ".",
		},
		{
			Name:     "magic-link",
			Subject:  "Your Lockstep sign-in link",
			Heading:  "Sign in to Lockstep",
			Intro:    "Use the button below to sign in. The link expires shortly and can only be used once.",
			Action:   "Sign in",
			URL:      ConfirmationURL,
			Footnote: "If you didn't request this link, you can ignore this email.",
		},
		{
			Name:     "change-email",
			Subject:  "Confirm your new email address",
			Heading:  "Confirm email change",
			Intro:    "Confirm that you want to use " + NewEmail + " for your Lockstep account.",
			Action:   "Confirm new email",
			URL:      ConfirmationURL,
			Footnote: "If you didn't ask to change your email, contact us straight away.",
		},
		{
			Name:     "reset-password",
			Subject:  "Reset your Lockstep password",
			Heading:  "Reset your password",
			Intro:    "We received a request to reset your password. Choose a new one using the button below.",
			Action:   "Reset password",
			URL:      ConfirmationURL,
			Footnote: "If you didn't request a reset, your password has not changed.",
		},
		{
			Name:     "reauthentication",
			Subject:  "Confirm it's you",
			Heading:  "Confirm it's you",
			Intro:    "Enter this code to finish what you started on Lockstep.",
			Code:     Token,
			Footnote: "If you didn't request this code, you can ignore this email.",
		},
	}
}

// The layout uses [[ ]] so the backend's {{ }} placeholders pass through
// as plain text. Every field is a trusted constant, so nothing is escaped.
var layout = template.Must(template.New("email").Delims("[[", "]]").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>[[ .Subject ]]</title>
</head>
<body style="margin:0;padding:0;background:#f6f2ee;font-family:Helvetica,Arial,sans-serif;color:#2b2420;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="padding:32px 0;">
<tr><td align="center">
<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:12px;padding:40px;">
<tr><td style="font-size:14px;letter-spacing:2px;text-transform:uppercase;color:#b0643c;font-weight:bold;">Lockstep</td></tr>
<tr><td style="padding-top:24px;font-size:24px;font-weight:bold;">[[ .Heading ]]</td></tr>
<tr><td style="padding-top:16px;font-size:16px;line-height:24px;">[[ .Intro ]]</td></tr>
[[- if .Code ]]
<tr><td style="padding-top:24px;"><div style="font-size:28px;letter-spacing:6px;font-weight:bold;text-align:center;background:#f6f2ee;border-radius:8px;padding:16px;">[[ .Code ]]</div></td></tr>
[[- else ]]
<tr><td style="padding-top:24px;"><a href="[[ .URL ]]" style="display:inline-block;background:#b0643c;color:#ffffff;text-decoration:none;font-weight:bold;padding:14px 28px;border-radius:8px;">[[ .Action ]]</a></td></tr>
<tr><td style="padding-top:16px;font-size:13px;color:#7a6e66;">Or paste this link into your browser: [[ .URL ]]</td></tr>
[[- end ]]
<tr><td style="padding-top:32px;font-size:13px;color:#7a6e66;">[[ .Footnote ]]</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`))

// Render returns the HTML for t.
func Render(t Template) ([]byte, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, t); err != nil {
		return nil, fmt.Errorf("render %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// WriteAll renders every template into dir as <name>.html and returns the
// written paths.
func WriteAll(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	var paths []string
	for _, t := range Templates() {
		html, err := Render(t)
		if err != nil {
			return paths, err
		}
		p := filepath.Join(dir, t.Name+".html")
		if err := os.WriteFile(p, html, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
