package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// handleExportShifts exports the derived shift metrics table to CSV or Excel.
// Derivation happens at export time from the same engine the API uses.
func handleExportShifts(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	rows, err := shiftMetricsRows(r)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	headers := []string{"Plant", "Date", "Shift", "Machine", "Runtime (min)", "Target", "Actual", "Rejected", "OK Qty", "Efficiency %"}
	var data [][]string
	for _, row := range rows {
		data = append(data, []string{
			row.Plant, row.ShiftDate, row.ShiftLabel, row.MachineID,
			strconv.Itoa(row.RuntimeMin), strconv.Itoa(row.TargetQty),
			strconv.Itoa(row.ActualQty), strconv.Itoa(row.RejectedQty),
			strconv.Itoa(row.OKQty), fmt.Sprintf("%.2f", row.EfficiencyPct),
		})
	}

	logDataExport(getUsername(r), "shifts", format, len(data))

	if format == "xlsx" {
		exportExcel(w, "ShiftMetrics", headers, data)
	} else {
		exportCSV(w, "shift_metrics.csv", headers, data)
	}
}

// handleExportSetterPerformance exports the ranked setter summary.
func handleExportSetterPerformance(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	from, to, err := reportRange(r)
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}
	report := setterPerformance(from, to)

	headers := []string{"Setter", "Total Setups", "Avg Setup (min)", "Min Setup (min)", "Max Setup (min)", "Repeats", "Avg Approval Delay (min)", "Max Approval Delay (min)", "Efficiency Score"}
	var data [][]string
	for _, s := range report.Setters {
		data = append(data, []string{
			s.SetterName,
			strconv.Itoa(s.TotalSetups),
			fmtMinutes(s.AvgSetupDurationMinutes),
			fmtMinutes(s.MinSetupDurationMinutes),
			fmtMinutes(s.MaxSetupDurationMinutes),
			strconv.Itoa(s.RepeatSetupCount),
			fmtMinutes(s.AvgApprovalDelayMinutes),
			fmtMinutes(s.MaxApprovalDelayMinutes),
			fmt.Sprintf("%.2f", s.EfficiencyScore),
		})
	}

	logDataExport(getUsername(r), "setter_performance", format, len(data))

	if format == "xlsx" {
		exportExcel(w, "SetterPerformance", headers, data)
	} else {
		exportCSV(w, "setter_performance.csv", headers, data)
	}
}

// fmtMinutes renders a nullable minutes value; unknown stays blank rather
// than printing a misleading zero.
func fmtMinutes(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *v)
}

// exportCSV writes data to CSV format.
func exportCSV(w http.ResponseWriter, filename string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		http.Error(w, "Failed to write CSV headers", 500)
		return
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			http.Error(w, "Failed to write CSV row", 500)
			return
		}
	}
}

// exportExcel writes data to Excel format with a styled header row.
func exportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, "Failed to create Excel sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		http.Error(w, "Failed to create header style", 500)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(sheetName)))

	if err := f.Write(w); err != nil {
		http.Error(w, "Failed to write Excel file", 500)
		return
	}
}
