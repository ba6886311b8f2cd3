package documents

import (
	"bytes"
	"testing"
	"time"
)

func TestGenerate_MilestoneContract(t *testing.T) {
	doc := ContractDocument{
		ContractNumber: "SC-20260314-ABCDEFGH23456789",
		ProjectTitle:   "Instalación fotovoltaica 10kW",
		ClientName:     "Cliente",
		InstallerName:  "Instalador",
		PaymentType:    "milestones",
		TotalCents:     9_500_000,
		Milestones: []MilestoneLine{
			{Sequence: 1, Name: "Acepta oferta", PercentageBps: 3000, AmountCents: 2_850_000, CommissionCents: 142_500},
			{Sequence: 2, Name: "Inicio instalación", PercentageBps: 4000, AmountCents: 3_800_000, CommissionCents: 190_000},
			{Sequence: 3, Name: "Entrega final", PercentageBps: 3000, AmountCents: 2_850_000, CommissionCents: 142_500},
		},
		IssuedAt:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		VerifyURL: "https://app.example.com/api/v1/contracts/5f6d",
	}

	pdfBytes, err := NewGenerator().Generate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
	if len(pdfBytes) < 1000 {
		t.Fatalf("PDF suspiciously small: %d bytes", len(pdfBytes))
	}
}

func TestGenerate_NoQRWhenNoVerifyURL(t *testing.T) {
	doc := ContractDocument{
		ContractNumber: "SC-20260314-ABCDEFGH23456789",
		ProjectTitle:   "Instalación",
		PaymentType:    "upfront",
		TotalCents:     4_200_000,
		IssuedAt:       time.Now(),
	}

	pdfBytes, err := NewGenerator().Generate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[int64]string{
		9_500_000: "95000,00 €",
		142_500:   "1425,00 €",
		101:       "1,01 €",
		0:         "0,00 €",
		-250:      "-2,50 €",
	}
	for cents, want := range cases {
		if got := formatEuros(cents); got != want {
			t.Fatalf("formatEuros(%d) = %q, want %q", cents, got, want)
		}
	}
}
