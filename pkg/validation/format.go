// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/depreciation-forecast/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatMarkdown:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatMarkdown, format)
}

// ValidateDatasetDriver checks if the dataset driver is supported.
func ValidateDatasetDriver(driver string) error {
	switch driver {
	case constants.DatasetDriverCSV, constants.DatasetDriverSQLite, constants.DatasetDriverPostgres:
		return nil
	}
	return fmt.Errorf("expected dataset driver of %s, %s or %s, got %s",
		constants.DatasetDriverCSV, constants.DatasetDriverSQLite, constants.DatasetDriverPostgres, driver)
}
