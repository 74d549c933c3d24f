package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// GroupCSV renders the summary as type,name,amount rows led by the total
func GroupCSV(g *GroupSummary) ([]byte, error) {
	records := [][]string{
		{"type", "name", "amount"},
		{"total", "", g.Total.StringFixed(2)},
	}
	records = appendLines(records, "category", g.ByCategory.Lines())
	records = appendLines(records, "payer", g.ByPayer.Lines())
	return writeCSV(records)
}

// UserCSV renders the summary as type,name,amount rows
func UserCSV(u *UserSummary) ([]byte, error) {
	records := [][]string{{"type", "name", "amount"}}
	records = appendLines(records, "group", u.ByGroup.Lines())
	records = appendLines(records, "category", u.ByCategory.Lines())
	return writeCSV(records)
}

func appendLines(records [][]string, kind string, lines []Line) [][]string {
	for _, l := range lines {
		records = append(records, []string{kind, l.Name, l.Amount.StringFixed(2)})
	}
	return records
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

type section struct {
	title string
	lines []Line
	label func(string) string
}

func newPDF(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	return pdf
}

func writeSections(pdf *fpdf.Fpdf, sections ...section) ([]byte, error) {
	for _, s := range sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, s.title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, l := range s.lines {
			name := l.Name
			if s.label != nil {
				name = s.label(name)
			}
			pdf.CellFormat(10, 6, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(120, 6, name, "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, l.Amount.StringFixed(2), "", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// GroupPDF renders the group summary as a single page document
func GroupPDF(g *GroupSummary) ([]byte, error) {
	pdf := newPDF("Group " + g.GroupID + " Summary")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Total: "+g.Total.StringFixed(2), "", 1, "L", false, 0, "")
	return writeSections(pdf,
		section{title: "By Category", lines: g.ByCategory.Lines()},
		section{title: "By Payer", lines: g.ByPayer.Lines()},
	)
}

// UserPDF renders the user summary, labelling groups by name
func UserPDF(u *UserSummary) ([]byte, error) {
	pdf := newPDF("User " + u.UserID + " Summary")
	groupLabel := func(id string) string {
		if name := u.GroupNames[id]; name != "" {
			return name
		}
		return id
	}
	return writeSections(pdf,
		section{title: "By Group", lines: u.ByGroup.Lines(), label: groupLabel},
		section{title: "By Category", lines: u.ByCategory.Lines()},
	)
}
