package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/catering/internal/domain"
)

const SheetName = "Customers"

var header = []string{"Customer", "Company Name", "Phone", "Customer Code", "Email"}

// CustomersWorkbook lays customers out one per row in the given order.
func CustomersWorkbook(customers []domain.Customer) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return nil, err
	}
	for i, c := range customers {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{c.FullName(), c.CompanyName, c.FormattedPhone(), c.CustomerCode, c.EmailAddress()}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "A", 28)
	_ = f.SetColWidth(SheetName, "B", "B", 24)
	_ = f.SetColWidth(SheetName, "C", "D", 16)
	_ = f.SetColWidth(SheetName, "E", "E", 32)
	return f, nil
}
