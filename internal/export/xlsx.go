// Package export writes discovery results to spreadsheet files.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/scout-group/discover-cli/internal/model"
)

var headers = []string{
	"Name", "Website", "Description", "City", "Country",
	"Funding", "Score", "Verified", "Source",
}

// WriteXLSX writes candidates to an .xlsx workbook at path.
func WriteXLSX(path string, candidates []model.CandidateRecord) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Candidates")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range headers {
		hr.AddCell().Value = h
	}

	for _, c := range candidates {
		row := sheet.AddRow()
		row.AddCell().Value = c.Name
		row.AddCell().Value = c.Website
		row.AddCell().Value = c.Description

		city, country := "", ""
		if c.Location != nil {
			city, country = c.Location.City, c.Location.Country
		}
		row.AddCell().Value = city
		row.AddCell().Value = country

		funding := ""
		if c.FundingSignal {
			funding = c.FundingAmount
			if funding == "" {
				funding = "yes"
			}
		}
		row.AddCell().Value = funding

		row.AddCell().SetInt(c.QualityScore)
		if c.Verified {
			row.AddCell().Value = "yes"
		} else {
			row.AddCell().Value = "no"
		}
		row.AddCell().Value = string(c.SourceType)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
