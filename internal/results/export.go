package results

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// ExportXLSX writes a processing result to an Excel workbook with
// Summary, Documents, Fields and Validations sheets.
func ExportXLSX(result *entity.ProcessingResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, result); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot write summary sheet", err)
	}
	if err := writeDocumentsSheet(f, result); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot write documents sheet", err)
	}
	if err := writeFieldsSheet(f, result); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot write fields sheet", err)
	}
	if err := writeValidationsSheet(f, result); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot write validations sheet", err)
	}

	f.DeleteSheet("Sheet1")
	if err := f.SaveAs(path); err != nil {
		return common.WrapAppError(common.CodeStorage, "cannot save workbook", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *entity.ProcessingResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	job := result.Job
	rows := [][]any{
		{"Job ID", job.ID.String()},
		{"File", job.OriginalFilename},
		{"Source", fmt.Sprintf("%s: %s", job.SourceType, job.SourceReference)},
		{"Status", string(job.Status)},
		{"Total pages", job.TotalPages},
		{"Documents detected", job.TotalDocumentsDetected},
		{"Documents succeeded", job.DocumentsSucceeded},
		{"Documents failed", job.DocumentsFailed},
		{"Fields extracted", result.TotalFieldsExtracted},
		{"Validations passed", result.TotalValidationsPassed},
		{"Validations failed", result.TotalValidationsFailed},
		{"Validations warned", result.TotalValidationsWarned},
		{"Overall confidence", string(result.OverallConfidence)},
		{"Tokens used", job.TotalTokensUsed},
		{"Cost (USD)", job.TotalCostUSD},
		{"Duration (ms)", job.ProcessingDurationMS},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeDocumentsSheet(f *excelize.File, result *entity.ProcessingResult) error {
	const sheet = "Documents"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"#", "Type", "Confidence", "Pages", "Valid", "Validation score", "Overall confidence", "Quality"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, doc := range result.Documents {
		typeCode := doc.DocumentTypeCode
		if typeCode == "" {
			typeCode = "(unclassified)"
		}
		row := []any{
			i + 1,
			typeCode,
			doc.ClassificationConfidence,
			fmt.Sprintf("%d-%d", doc.PageRangeStart, doc.PageRangeEnd),
			doc.IsValid,
			doc.ValidationScore,
			string(doc.OverallConfidence),
			doc.QualityScore,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeFieldsSheet(f *excelize.File, result *entity.ProcessingResult) error {
	const sheet = "Fields"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"Document", "Type", "Field", "Value", "Confidence"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	rowNum := 2
	for i, doc := range result.Documents {
		codes := make([]string, 0, len(doc.ExtractedFields))
		for code := range doc.ExtractedFields {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			row := []any{
				i + 1,
				doc.DocumentTypeCode,
				code,
				fmt.Sprintf("%v", doc.ExtractedFields[code]),
				doc.ExtractionConfidence[code],
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

func writeValidationsSheet(f *excelize.File, result *entity.ProcessingResult) error {
	const sheet = "Validations"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"Document", "Validator", "Severity", "Passed", "Field", "Message"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	rowNum := 2
	for i, doc := range result.Documents {
		for _, vr := range doc.ValidationResults {
			row := []any{
				i + 1,
				vr.ValidatorCode,
				string(vr.Severity),
				vr.Passed,
				vr.FieldName,
				vr.Message,
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}
