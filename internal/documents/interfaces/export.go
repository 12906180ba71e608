package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	documents "trade-ledger/internal/documents/domain"
	ledger "trade-ledger/internal/ledger/domain"
)

// BuildInvoicePDF renders a printable PDF for an issued invoice.
func BuildInvoicePDF(invoice *documents.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Invoice %s", invoice.InvoiceNumber))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Customer: %s", invoice.CustomerName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", invoice.Date))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rate: Rs %s/kg", invoice.SellRate.String()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", invoice.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Cage", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Birds", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Weight (kg)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, cage := range invoice.Cages {
		pdf.CellFormat(40, 6, cage.CageNo, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", cage.BirdCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, cage.WeightKg.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %d birds, %s kg", invoice.TotalBirds, invoice.TotalWeightKg.String()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount: Rs %d", invoice.TotalAmount))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Previous Due: Rs %d", invoice.PreviousDue))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Paid: Rs %d (%s)", invoice.TotalPayment, invoice.PaymentMode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("New Due: Rs %d", invoice.NewDue))
	pdf.Ln(5)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildLedgerXLSX renders the ledger entries as a workbook.
func BuildLedgerXLSX(entries []ledger.Entry) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "ledger"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Entity", "Type", "Kind", "Description", "Amount", "Payment", "Mode", "Balance"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, entry := range entries {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.Date)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.EntityName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(entry.EntityType))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(entry.Kind))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), entry.Description)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), entry.Amount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), entry.PaymentAmount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), string(entry.PaymentMode))
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), entry.Balance)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
