package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/postop/postop/internal/triage"
	"github.com/postop/postop/pkg/pagination"
)

const exportSheet = "Follow-up"

var exportHeaders = []string{
	"Response ID", "Submitted At", "Patient ID", "Patient", "Surgery", "Age", "Sex",
	"Weight (kg)", "Height (m)", "BMI", "BMI Band", "Level", "Rule",
	"Pain 6h", "Pain 24h", "Pain Alert", "Nausea", "Vomiting", "Drowsiness",
	"Satisfaction", "Observation",
}

var exportColumnWidths = []float64{12, 20, 12, 28, 28, 10, 12, 12, 12, 8, 12, 14, 18, 9, 9, 11, 9, 10, 11, 20, 40}

// fill colours for the Level column, keyed by Level.Color().
var levelFills = map[string]string{
	"red":    "#F8CBAD",
	"yellow": "#FFE699",
	"green":  "#C6EFCE",
}

// Export writes every dashboard row, newest first, as an xlsx workbook. It
// returns the number of rows written.
func (s *Service) Export(ctx context.Context, w io.Writer, level *triage.Level) (int, error) {
	var rows []Row
	params := pagination.Params{Limit: pagination.MaxLimit}
	for {
		page, err := s.Page(ctx, Query{Limit: params.Limit, Offset: params.Offset, Level: level})
		if err != nil {
			return 0, err
		}
		rows = append(rows, page.Rows...)
		if !page.HasMore {
			break
		}
		params.Offset = params.NextOffset()
	}

	if err := WriteWorkbook(w, rows); err != nil {
		return 0, err
	}
	s.logger.Info().Int("rows", len(rows)).Msg("dashboard exported")
	return len(rows), nil
}

// WriteWorkbook renders rows into a single-sheet workbook.
func WriteWorkbook(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(exportSheet)
	if err != nil {
		return fmt.Errorf("locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	levelStyles := make(map[string]int, len(levelFills))
	for color, fill := range levelFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create level style: %w", err)
		}
		levelStyles[color] = id
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, name, name, exportColumnWidths[col]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	levelCol := indexOf(exportHeaders, "Level") + 1
	for i, row := range rows {
		line := i + 2
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		values := exportValues(row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", line, err)
		}
		if style, ok := levelStyles[row.LevelColor]; ok {
			lc, _ := excelize.CoordinatesToCellName(levelCol, line)
			if err := f.SetCellStyle(exportSheet, lc, lc, style); err != nil {
				return fmt.Errorf("style row %d: %w", line, err)
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exportValues(row Row) []interface{} {
	resp := row.Response
	var sex, weight, height, bmi interface{} = "", "", "", ""
	if p := row.Patient; p != nil {
		if p.Sex != nil {
			sex = string(*p.Sex)
		}
		if p.WeightKg != nil {
			weight = *p.WeightKg
		}
		if p.HeightM != nil {
			height = *p.HeightM
		}
		if p.BMI != nil {
			bmi = *p.BMI
		}
	}
	return []interface{}{
		resp.ID,
		resp.SubmittedAt.Format("2006-01-02 15:04"),
		resp.PatientID,
		row.PatientLabel,
		row.SurgeryLabel(),
		row.AgeLabel(),
		sex,
		weight,
		height,
		bmi,
		string(row.BMIBand),
		string(row.Assessment.Level),
		string(row.Assessment.Rule),
		resp.Pain6h,
		resp.Pain24h,
		yesNo(resp.PainAlert()),
		yesNo(resp.Nausea),
		yesNo(resp.Vomiting),
		yesNo(resp.Drowsiness),
		resp.Satisfaction,
		row.ObservationLabel(),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}
