// Package source reads tabular onboarding files into ordered user records.
//
// The expected format is a delimited text file with a header row naming
// fields, one record per subsequent row. Parsing is eager: the whole file is
// read into memory before the first record is returned, so a malformed file
// fails the run before any account is touched.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Common record-source errors.
var (
	ErrEmptyFile       = errors.New("input file contains no header row")
	ErrNoRecords       = errors.New("input file contains no user records")
	ErrMissingRequired = errors.New("input file header is missing a required column")
)

// Header labels as they appear in the onboarding template. Labels with
// spaces are field labels from the template, not identifiers.
const (
	colDisplayName       = "DisplayName"
	colUserPrincipalName = "UserPrincipalName"
	colPassword          = "Password"
	colGivenName         = "First Name"
	colSurname           = "Last Name"
	colJobTitle          = "Job title"
	colDepartment        = "Department"
	colUsageLocation     = "Usage location"
	colState             = "State"
	colCountry           = "Country"
	colOfficeLocation    = "Office Location"
	colCity              = "City"
	colPostalCode        = "Postal Code"
)

// requiredColumns must be present in the header for the file to be usable at
// all. Profile columns may be absent; their fields are left empty.
var requiredColumns = []string{colDisplayName, colUserPrincipalName, colPassword}

// UserRecord is one row of the onboarding file. All fields are plain text
// and are never mutated after parse; field format validation is deferred to
// the directory service.
type UserRecord struct {
	DisplayName       string
	UserPrincipalName string
	Password          string
	GivenName         string
	Surname           string
	JobTitle          string
	Department        string
	UsageLocation     string
	OfficeLocation    string
	City              string
	State             string
	Country           string
	PostalCode        string
}

// Parse reads the onboarding file at path and returns its rows in file
// order. Any read or format error is fatal to the whole run; no partial
// record sequence is ever returned.
func Parse(path string) ([]UserRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file %q: %w", path, err)
	}
	defer f.Close()

	records, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse input file %q: %w", path, err)
	}
	return records, nil
}

// parse reads CSV rows from r. Split out from Parse so tests can feed
// in-memory input.
func parse(r io.Reader) ([]UserRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingRequired, name)
		}
	}

	// Rows may legitimately have fewer fields than the header when trailing
	// profile columns are blank in the template export.
	reader.FieldsPerRecord = -1

	var records []UserRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		records = append(records, UserRecord{
			DisplayName:       field(colDisplayName),
			UserPrincipalName: field(colUserPrincipalName),
			Password:          field(colPassword),
			GivenName:         field(colGivenName),
			Surname:           field(colSurname),
			JobTitle:          field(colJobTitle),
			Department:        field(colDepartment),
			UsageLocation:     field(colUsageLocation),
			OfficeLocation:    field(colOfficeLocation),
			City:              field(colCity),
			State:             field(colState),
			Country:           field(colCountry),
			PostalCode:        field(colPostalCode),
		})
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}
