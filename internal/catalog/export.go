package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/pkg/formatting"
)

// ExportSheet is the worksheet name of the catalog workbook.
const ExportSheet = "Documentos"

var exportHeader = []string{"ID", "Título", "Tipo", "Controles", "Fecha"}

// WriteXLSX writes docs as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, docs []backend.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, title := range exportHeader {
		if err := setCell(f, i+1, 1, title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(ExportSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, d := range docs {
		row := i + 2
		controls := make([]string, len(d.Controls))
		for j, c := range d.Controls {
			controls[j] = "A." + c
		}
		values := []any{d.ID, d.Title, d.Type.Label(), strings.Join(controls, ", "), formatting.FormatDate(d.Date)}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(ExportSheet, "B", "B", 48); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(ExportSheet, "C", "E", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(ExportSheet, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
