package mail

import (
	"html/template"
	"strings"

	"github.com/pkg/errors"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<html>
<body>
  <p>Hi {{.Name}},</p>
  <p>Thanks for signing up. Please confirm your email address by clicking the link below:</p>
  <p><a href="{{.Link}}">Confirm my email</a></p>
  <p>If you did not create this account, you can ignore this message.</p>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
<body>
  <p>Hi {{.Name}},</p>
  <p>Your email has been confirmed. Welcome aboard!</p>
</body>
</html>`))

var passwordResetTemplate = template.Must(template.New("passwordReset").Parse(`<html>
<body>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset your password. Click the link below to choose a new one:</p>
  <p><a href="{{.Link}}">Reset my password</a></p>
  <p>If you did not request this, you can ignore this message.</p>
</body>
</html>`))

type templateData struct {
	Name string
	Link string
}

func renderTemplate(tmpl *template.Template, data templateData) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render %s template", tmpl.Name())
	}

	return buf.String(), nil
}
