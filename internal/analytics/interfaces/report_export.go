package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "evcharge-manager/internal/analytics/domain"
)

// BuildYearReportPDF renders the monthly cost/savings report of one year.
func BuildYearReportPDF(yearLabel string, months []analytics.MonthlySummary, derived []analytics.DerivedRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("EV Charge Report %s", yearLabel))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)

	var totalEnergy, totalCost, totalFuel, totalSavings float64
	for _, m := range months {
		totalEnergy += m.EnergyKWh
		totalCost += m.ActualCost
		totalFuel += m.EquivalentFuelCost
		totalSavings += m.Savings
	}
	pdf.Cell(0, 6, fmt.Sprintf("Total Energy (kWh): %.1f", totalEnergy))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Cost (EUR): %.2f", totalCost))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Equivalent Fuel Cost (EUR): %.2f", totalFuel))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Savings (EUR): %.2f", totalSavings))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Charges", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "kWh", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Fuel Equiv.", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Savings", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, m := range months {
		pdf.CellFormat(35, 6, m.MonthLabel, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", m.Charges), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", m.EnergyKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", m.ActualCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", m.EquivalentFuelCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", m.Savings), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "kWh", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Location", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Tariff", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Savings", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, d := range derived {
		if d.YearLabel != yearLabel {
			continue
		}
		pdf.CellFormat(30, 6, d.Date.Format(time.DateOnly), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", d.EnergyKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, string(d.Location), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", d.TariffPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", d.ActualCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", d.Savings), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildYearReportXLSX renders the same report as a workbook.
func BuildYearReportXLSX(yearLabel string, months []analytics.MonthlySummary, derived []analytics.DerivedRecord) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	detailSheet := "charges"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("EV Charge Report %s", yearLabel))
	headers := []string{"Month", "Charges", "Energy (kWh)", "Cost (EUR)", "Fuel Equiv. (EUR)", "Savings (EUR)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(summarySheet, cell, header)
	}
	for i, m := range months {
		row := i + 4
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), m.MonthLabel)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), m.Charges)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), m.EnergyKWh)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), m.ActualCost)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("E%d", row), m.EquivalentFuelCost)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("F%d", row), m.Savings)
	}

	_ = f.SetCellValue(detailSheet, "A1", "Date")
	_ = f.SetCellValue(detailSheet, "B1", "kWh")
	_ = f.SetCellValue(detailSheet, "C1", "Location")
	_ = f.SetCellValue(detailSheet, "D1", "Tariff (EUR/kWh)")
	_ = f.SetCellValue(detailSheet, "E1", "Cost (EUR)")
	_ = f.SetCellValue(detailSheet, "F1", "Savings (EUR)")
	row := 2
	for _, d := range derived {
		if d.YearLabel != yearLabel {
			continue
		}
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("A%d", row), d.Date.Format(time.DateOnly))
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("B%d", row), d.EnergyKWh)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("C%d", row), string(d.Location))
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("D%d", row), d.TariffPrice)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("E%d", row), d.ActualCost)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("F%d", row), d.Savings)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
