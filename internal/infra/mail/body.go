package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

const bodyStyle = `<style>
  table { font-family: Arial, sans-serif; border-collapse: collapse; }
  th, td { padding: 5px 10px; text-align: left; }
</style>`

var creationTemplate = template.Must(template.New("creation").Parse(`<html>
  <head>` + bodyStyle + `</head>
  <body style="margin:0; padding:0; font-family:Arial, sans-serif;">
    <p>Hello,</p>
    <p>The following account has been created for the collaborator:</p>
    <table border="0" cellspacing="0" cellpadding="0">
      <tr><th>Field</th><th>Value</th></tr>
      <tr><td>Full name</td><td>{{.FullName}}</td></tr>
      <tr><td>First name</td><td>{{.FirstName}}</td></tr>
      <tr><td>Last name</td><td>{{.LastName}}</td></tr>
      <tr><td>Organizational unit</td><td>{{.OrgUnit}}</td></tr>
      <tr><td>Description</td><td>{{.Description}}</td></tr>
      <tr><td>Office</td><td>{{.Office}}</td></tr>
      <tr><td>Phone number</td><td>{{.PhoneNumber}}</td></tr>
      <tr><td>Login</td><td>{{.Login}}</td></tr>
      <tr><td>Manager</td><td>{{.Manager}}</td></tr>
      <tr><td>Assigned groups</td><td>{{.Groups}}</td></tr>
      <tr><td>Generated password</td><td>{{.Password}}</td></tr>
    </table>
    <p>Regards,<br>The infrastructure team</p>
  </body>
</html>`))

var simpleTemplate = template.Must(template.New("simple").Parse(`<html>
  <head>` + bodyStyle + `</head>
  <body style="margin:0; padding:0; font-family:Arial, sans-serif;">
    <p>{{.}}</p>
  </body>
</html>`))

var modificationTemplate = template.Must(template.New("modification").Parse(`<html>
  <head>` + bodyStyle + `</head>
  <body style="margin:0; padding:0; font-family:Arial, sans-serif;">
    <p>Hello,</p>
    <p>The following changes have been applied for <strong>{{.FullName}}</strong>:</p>
    <table border="0" cellspacing="0" cellpadding="0">
      <tr><th>Field</th><th>Value</th></tr>
      <tr><td>Description</td><td>{{.Description}}</td></tr>
      <tr><td>Office</td><td>{{.Office}}</td></tr>
      <tr><td>Phone number</td><td>{{.PhoneNumber}}</td></tr>
      <tr><td>Manager</td><td>{{.Manager}}</td></tr>
      <tr><td>Groups</td><td>{{.Groups}}</td></tr>
    </table>
    <p>Regards,<br>The infrastructure team</p>
  </body>
</html>`))

var supportTemplate = template.Must(template.New("support").Parse(`<html>
  <head>` + bodyStyle + `</head>
  <body style="margin:0; padding:0; font-family:Arial, sans-serif;">
    <p>Hello,</p>
    <p>The user <strong>{{.}}</strong> has been created. The credentials are attached.</p>
    <p>Regards,<br>The infrastructure team</p>
  </body>
</html>`))

type creationBody struct {
	FullName    string
	FirstName   string
	LastName    string
	OrgUnit     string
	Description string
	Office      string
	PhoneNumber string
	Login       string
	Manager     string
	Groups      string
	Password    string
}

func buildCreationBody(notice port.CreationNotice) (string, error) {
	data := creationBody{
		FullName:    notice.FullName,
		FirstName:   notice.FirstName,
		LastName:    notice.LastName,
		OrgUnit:     notice.OrgUnit,
		Description: orDefault(notice.Description, "Not specified"),
		Office:      orDefault(notice.Office, "Not specified"),
		PhoneNumber: orDefault(notice.PhoneNumber, "Not specified"),
		Login:       notice.Login + notice.Domain,
		Manager:     orDefault(domain.CommonName(notice.ManagerDN), "None"),
		Groups:      orDefault(strings.Join(labelsForGroups(notice.Groups), ", "), "None"),
		Password:    notice.Password,
	}
	return render(creationTemplate, data)
}

func buildModificationBody(notice port.ModificationNotice) (string, error) {
	data := creationBody{
		FullName:    orDefault(notice.FullName, domain.CommonName(notice.DN)),
		Description: orDefault(notice.Description, "Unchanged"),
		Office:      orDefault(notice.Office, "Unchanged"),
		PhoneNumber: orDefault(notice.PhoneNumber, "Unchanged"),
		Manager:     orDefault(domain.CommonName(notice.ManagerDN), "Unchanged"),
		Groups:      orDefault(strings.Join(labelsForGroups(notice.Groups), ", "), "Unchanged"),
	}
	return render(modificationTemplate, data)
}

func buildDeletionBody(fullName string) (string, error) {
	name := orDefault(strings.TrimSpace(fullName), "Unknown")
	return render(simpleTemplate, template.HTML(
		fmt.Sprintf("The collaborator <strong>%s</strong> has been deleted.", template.HTMLEscapeString(name))))
}

func buildScheduledBody(fullName string, at time.Time) (string, error) {
	name := orDefault(strings.TrimSpace(fullName), "Unknown")
	return render(simpleTemplate, template.HTML(fmt.Sprintf(
		"The collaborator <strong>%s</strong> will be permanently deleted on <strong>%s</strong>.",
		template.HTMLEscapeString(name), domain.FormatScheduledAt(at))))
}

func buildCompletedBody(commonName string, at time.Time) (string, error) {
	name := orDefault(strings.TrimSpace(commonName), "Unknown")
	return render(simpleTemplate, template.HTML(fmt.Sprintf(
		"The account of <strong>%s</strong> has been permanently deleted on %s.",
		template.HTMLEscapeString(name), domain.FormatScheduledAt(at))))
}

func buildSupportBody(commonName string) (string, error) {
	return render(supportTemplate, commonName)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail body: %w", err)
	}
	return buf.String(), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
