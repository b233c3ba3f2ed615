package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template names understood by Render.
const (
	TemplateVerifyEmail  = "verify_email"
	TemplateVerifyDevice = "verify_device"
)

// Fields is the data a template is rendered with.
type Fields struct {
	Name    string
	AppName string
	Link    string
	// ExpiresIn is the human-readable token lifetime, e.g. "24 hours".
	ExpiresIn string
}

var subjects = map[string]string{
	TemplateVerifyEmail:  "Verify your {{ .AppName }} account",
	TemplateVerifyDevice: "Confirm your new device on {{ .AppName }}",
}

var bodies = map[string]string{
	TemplateVerifyEmail: `Hello {{ .Name | title }},

Welcome to {{ .AppName }}. Please verify your email address by opening the
link below:

{{ .Link }}

The link expires in {{ .ExpiresIn }}. If you did not create this account you
can ignore this email.`,

	TemplateVerifyDevice: `Hello {{ .Name | title }},

A sign-in to your {{ .AppName }} account was attempted from a device we have
not seen before. If this was you, confirm the device by opening the link
below:

{{ .Link }}

The link expires in {{ .ExpiresIn }}. If this was not you, change your
password immediately.`,
}

var (
	subjectTemplates = parseAll(subjects)
	bodyTemplates    = parseAll(bodies)
)

func parseAll(sources map[string]string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(sources))
	for name, source := range sources {
		parsed[name] = template.Must(
			template.New(name).Funcs(sprig.TxtFuncMap()).Parse(source),
		)
	}
	return parsed
}

func render(tmpl *template.Template, fields Fields) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces the subject and body for the named template.
func Render(name string, fields Fields) (subject, body string, err error) {
	subjectTmpl, ok := subjectTemplates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template: %s", name)
	}

	if subject, err = render(subjectTmpl, fields); err != nil {
		return "", "", fmt.Errorf("failed to render mail subject %s: %w", name, err)
	}
	if body, err = render(bodyTemplates[name], fields); err != nil {
		return "", "", fmt.Errorf("failed to render mail body %s: %w", name, err)
	}

	return subject, body, nil
}
