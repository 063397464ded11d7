package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// CredentialSheet renders the A4 credential sheet attached to account
// creation mail: company logo when configured, then the new collaborator's
// name, login, and initial password.
func CredentialSheet(logoPath, firstName, lastName, login, password string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	y := 20.0
	if logoPath != "" {
		doc.ImageOptions(logoPath, 20, y, 40, 40, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		y += 55
	}

	doc.SetFont("Helvetica", "B", 16)
	doc.SetXY(20, y)
	doc.Cell(0, 10, "Account creation")
	y += 20

	rows := []struct {
		label string
		value string
	}{
		{"Last name:", lastName},
		{"First name:", firstName},
		{"Login:", login},
		{"Password:", password},
	}

	doc.SetFont("Helvetica", "", 12)
	for _, row := range rows {
		doc.SetXY(20, y)
		doc.Cell(40, 7, row.label)
		doc.SetXY(60, y)
		doc.Cell(0, 7, row.value)
		y += 7
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render credential sheet: %w", err)
	}

	return buf.Bytes(), nil
}
