package email

import (
	"strings"
	"testing"
)

func TestRenderContractIssuedTemplate(t *testing.T) {
	content, err := renderEmailTemplate("contract_issued.html", contractIssuedTemplateData{
		Title:          "Contrato emitido",
		Heading:        "Tu contrato está listo",
		ContractNumber: "SC-20260314-ABCDEFGH23456789",
		ProjectTitle:   "Instalación 10kW",
		TotalFormatted: "95000,00 €",
		PaymentType:    "Pago por hitos",
		CTALabel:       "Ver contrato",
		CTAURL:         "https://app.example.com/contracts/abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"SC-20260314-ABCDEFGH23456789",
		"Instalación 10kW",
		"95000,00 €",
		"https://app.example.com/contracts/abc",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("rendered template missing %q", want)
		}
	}
}

func TestRenderContractIssuedTemplate_NoCTA(t *testing.T) {
	content, err := renderEmailTemplate("contract_issued.html", contractIssuedTemplateData{
		Title:          "Contrato emitido",
		Heading:        "Tu contrato está listo",
		ContractNumber: "SC-20260314-ABCDEFGH23456789",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(content, "<a href=\"\"") {
		t.Fatal("empty CTA should not render a link")
	}
}
