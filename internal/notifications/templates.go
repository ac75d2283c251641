package notifications

import (
	"bytes"
	"html/template"
	"strings"
)

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2 style="margin-bottom: 8px;">{{.Title}}</h2>
  {{if .Message}}<p>{{.Message}}</p>{{end}}
  {{if .URL}}<p><a href="{{.URL}}" style="display: inline-block; padding: 10px 16px; background: #0b6e99; color: #ffffff; text-decoration: none; border-radius: 4px;">Open</a></p>{{end}}
  <p style="font-size: 12px; color: #7b8794;">This is an automated message. Replies are not monitored.</p>
</body>
</html>`))

type emailView struct {
	Title   string
	Message string
	URL     string
}

// renderEmail builds the HTML body for a notification email.
func renderEmail(baseURL string, title, message, link string) (string, error) {
	view := emailView{Title: title, Message: message}
	if link != "" {
		view.URL = absoluteURL(baseURL, link)
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func absoluteURL(baseURL, link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") || baseURL == "" {
		return link
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(link, "/")
}
