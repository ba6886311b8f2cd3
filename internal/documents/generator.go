// Package documents renders contract PDFs.
package documents

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// MilestoneLine is one installment row on the document.
type MilestoneLine struct {
	Sequence        int
	Name            string
	PercentageBps   int
	AmountCents     int64
	CommissionCents int64
}

// ContractDocument carries everything the PDF needs.
type ContractDocument struct {
	ContractNumber string
	ProjectTitle   string
	ClientName     string
	InstallerName  string
	PaymentType    string
	TotalCents     int64
	Milestones     []MilestoneLine
	IssuedAt       time.Time
	VerifyURL      string
}

// Generator renders contract documents with an embedded verification QR code.
type Generator struct{}

// NewGenerator creates a new document generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the contract PDF and returns its bytes.
func (g *Generator) Generate(doc ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Contrato de instalación solar"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contrato %s", doc.ContractNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Emitido el %s", doc.IssuedAt.Format("02/01/2006")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Proyecto", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(doc.ProjectTitle), "", "L", false)
	pdf.Ln(2)

	partyBlock(pdf, tr, "Cliente", doc.ClientName)
	partyBlock(pdf, tr, "Instalador", doc.InstallerName)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Plan de pago", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Importe total: %s", formatEuros(doc.TotalCents))), "", 1, "L", false, 0, "")

	switch {
	case len(doc.Milestones) > 0:
		milestoneTable(pdf, tr, doc.Milestones)
	case doc.PaymentType == "upfront":
		pdf.CellFormat(0, 6, tr("Pago único por adelantado."), "", 1, "L", false, 0, "")
	case doc.PaymentType == "financing":
		pdf.CellFormat(0, 6, tr("Financiación pendiente de configuración con el proveedor externo."), "", 1, "L", false, 0, "")
	}

	if doc.VerifyURL != "" {
		if err := verificationQR(pdf, doc.VerifyURL); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render contract pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func partyBlock(pdf *gofpdf.Fpdf, tr func(string) string, title, name string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(30, 6, tr(title), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if name == "" {
		name = "-"
	}
	pdf.CellFormat(0, 6, tr(name), "", 1, "L", false, 0, "")
}

func milestoneTable(pdf *gofpdf.Fpdf, tr func(string) string, lines []MilestoneLine) {
	pdf.Ln(2)
	headers := []string{"#", "Hito", "%", "Importe", "Comisión"}
	widths := []float64{10, 70, 20, 35, 35}

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, m := range lines {
		cols := []string{
			fmt.Sprintf("%d", m.Sequence),
			m.Name,
			fmt.Sprintf("%.1f", float64(m.PercentageBps)/100),
			formatEuros(m.AmountCents),
			formatEuros(m.CommissionCents),
		}
		aligns := []string{"C", "L", "R", "R", "R"}
		for i, col := range cols {
			pdf.CellFormat(widths[i], 7, tr(col), "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func verificationQR(pdf *gofpdf.Fpdf, verifyURL string) error {
	png, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to encode verification qr: %w", err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("verify-qr", 20, 240, 30, 30, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(20, 272)
	pdf.CellFormat(0, 4, verifyURL, "", 1, "L", false, 0, "")
	return nil
}

func formatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}
