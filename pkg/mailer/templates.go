package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var resetPasswordHTML = template.Must(template.New(TemplateResetPassword).Parse(`
<p>Hi {{.Name}},</p>
<p>We received a request to reset the password for your account.</p>
<p><a href="{{.ResetURL}}">Reset your password</a></p>
<p>The link is valid until {{.ExpiresAt}} and can be used once. If you did
not request this, you can safely ignore this email.</p>
`))

var welcomeHTML = template.Must(template.New(TemplateWelcome).Parse(`
<p>Hi {{.Name}},</p>
<p>Welcome to Booktrack. Add books from the catalog to your library and
track your reading status.</p>
`))

// Render produces subject, text and html bodies for a template job.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	var buf bytes.Buffer
	switch name {
	case TemplateResetPassword:
		if err = resetPasswordHTML.Execute(&buf, data); err != nil {
			return
		}
		subject = "Reset your password"
		text = fmt.Sprintf("Reset your password: %v (valid until %v)", data["ResetURL"], data["ExpiresAt"])
	case TemplateWelcome:
		if err = welcomeHTML.Execute(&buf, data); err != nil {
			return
		}
		subject = "Welcome to Booktrack"
		text = "Welcome to Booktrack."
	default:
		err = fmt.Errorf("unknown template %q", name)
		return
	}
	html = buf.String()
	return
}
