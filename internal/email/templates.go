package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const subjectContractIssued = "Tu contrato de instalación solar está listo"

type contractIssuedTemplateData struct {
	Title          string
	Heading        string
	ContractNumber string
	ProjectTitle   string
	TotalFormatted string
	PaymentType    string
	CTALabel       string
	CTAURL         string
}

func renderEmailTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
