package artifact

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pvplant/internal/model"
	"pvplant/internal/quality"
)

const (
	dailySheet     = "Daily"
	anomaliesSheet = "Anomalies"
)

// WriteXLSX writes the daily aggregates and the anomaly list as a workbook.
func WriteXLSX(w io.Writer, daily []model.DailyAggregate, columns []string, anomalies []quality.Anomaly) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", dailySheet)
	header := append([]any{"plant", "inverter_id", "date", "samples"}, toAny(columns)...)
	if err := f.SetSheetRow(dailySheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, d := range daily {
		row := []any{string(d.Plant), d.InverterID, d.Date.Format("2006-01-02"), d.Samples}
		for _, c := range columns {
			row = append(row, d.Values[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(dailySheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(anomaliesSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	_ = f.SetCellValue(anomaliesSheet, "A1", "Kind")
	_ = f.SetCellValue(anomaliesSheet, "B1", "Severity")
	_ = f.SetCellValue(anomaliesSheet, "C1", "Plant")
	_ = f.SetCellValue(anomaliesSheet, "D1", "Inverter")
	_ = f.SetCellValue(anomaliesSheet, "E1", "Date")
	_ = f.SetCellValue(anomaliesSheet, "F1", "Count")
	_ = f.SetCellValue(anomaliesSheet, "G1", "Message")
	for i, a := range anomalies {
		row := i + 2
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("A%d", row), string(a.Kind))
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("B%d", row), string(a.Severity))
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("C%d", row), string(a.Plant))
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("D%d", row), a.InverterID)
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("E%d", row), a.Date)
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("F%d", row), a.Count)
		_ = f.SetCellValue(anomaliesSheet, fmt.Sprintf("G%d", row), a.Message)
	}

	return f.Write(w)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
