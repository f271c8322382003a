package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ReportHeader 日报表头
var ReportHeader = []string{
	"Area",
	"Total In",
	"Total Out",
	"Males",
	"Females",
	"Children",
	"Unknowns",
	"Highest Density Period",
	"Lowest Density Period",
}

// GenerateWorkbook 在内存里生成日报工作簿
// rows: 各区域统计行，reportDate: "YYYY-MM-DD"
func GenerateWorkbook(rows []RowStats, reportDate string) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Daily Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 首行标题
	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("Footfall Report %s", reportDate)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set title: %w", err)
	}
	if err := f.MergeCell(sheetName, "A1", "I1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to merge title cells: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "I1", titleStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set title style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头（第2行）
	for col, header := range ReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		20, // Area
		10, // Total In
		10, // Total Out
		10, // Males
		10, // Females
		10, // Children
		10, // Unknowns
		36, // Highest Density Period
		36, // Lowest Density Period
	}
	for i := range ReportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 数据从第3行开始
	for rowIdx, stats := range rows {
		row := rowIdx + 3
		values := []interface{}{
			stats.Name,
			stats.TotalIn,
			stats.TotalOut,
			stats.Males,
			stats.Females,
			stats.Children,
			stats.Unknowns,
			stats.HighestPeriod,
			stats.LowestPeriod,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// 冻结标题和表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteWorkbook 生成日报并写到输出目录，返回文件路径。
// 已存在的同名文件会被覆盖。
func WriteWorkbook(rows []RowStats, reportDate, outputDir string) (string, error) {
	data, err := GenerateWorkbook(rows, reportDate)
	if err != nil {
		return "", err
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	path := filepath.Join(outputDir, fmt.Sprintf("Date of Report(%s).xlsx", reportDate))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
