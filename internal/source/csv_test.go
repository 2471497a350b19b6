package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = "DisplayName,UserPrincipalName,Password,First Name,Last Name,Job title,Department,Usage location,State,Country,Office Location,City,Postal Code"

func TestParse(t *testing.T) {
	t.Run("FullRow", func(t *testing.T) {
		input := sampleHeader + "\n" +
			"Jane Doe,jdoe@contoso.com,P@ss1234,Jane,Doe,Engineer,R&D,US,WA,United States,Building 7,Redmond,98052\n"

		records, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, "Jane Doe", r.DisplayName)
		assert.Equal(t, "jdoe@contoso.com", r.UserPrincipalName)
		assert.Equal(t, "P@ss1234", r.Password)
		assert.Equal(t, "Jane", r.GivenName)
		assert.Equal(t, "Doe", r.Surname)
		assert.Equal(t, "Engineer", r.JobTitle)
		assert.Equal(t, "R&D", r.Department)
		assert.Equal(t, "US", r.UsageLocation)
		assert.Equal(t, "WA", r.State)
		assert.Equal(t, "United States", r.Country)
		assert.Equal(t, "Building 7", r.OfficeLocation)
		assert.Equal(t, "Redmond", r.City)
		assert.Equal(t, "98052", r.PostalCode)
	})

	t.Run("PreservesInputOrder", func(t *testing.T) {
		input := sampleHeader + "\n" +
			"C User,c@contoso.com,pw,,,,,,,,,,\n" +
			"A User,a@contoso.com,pw,,,,,,,,,,\n" +
			"B User,b@contoso.com,pw,,,,,,,,,,\n"

		records, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "C User", records[0].DisplayName)
		assert.Equal(t, "A User", records[1].DisplayName)
		assert.Equal(t, "B User", records[2].DisplayName)
	})

	t.Run("ShortRowLeavesTrailingFieldsEmpty", func(t *testing.T) {
		input := sampleHeader + "\n" +
			"Jane Doe,jdoe@contoso.com,P@ss1234\n"

		records, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Jane Doe", records[0].DisplayName)
		assert.Empty(t, records[0].GivenName)
		assert.Empty(t, records[0].PostalCode)
	})

	t.Run("ColumnsMatchedByLabelNotPosition", func(t *testing.T) {
		input := "Password,UserPrincipalName,DisplayName\n" +
			"pw123,jdoe@contoso.com,Jane Doe\n"

		records, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Jane Doe", records[0].DisplayName)
		assert.Equal(t, "jdoe@contoso.com", records[0].UserPrincipalName)
		assert.Equal(t, "pw123", records[0].Password)
	})

	t.Run("UnknownColumnsIgnored", func(t *testing.T) {
		input := "DisplayName,UserPrincipalName,Password,Favorite Color\n" +
			"Jane Doe,jdoe@contoso.com,pw,teal\n"

		records, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("MalformedValuePassedThrough", func(t *testing.T) {
		// Field format validation is the directory service's problem, not ours.
		input := "DisplayName,UserPrincipalName,Password\n" +
			"Broken,not-a-upn,pw\n"

		records, err := parse(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "not-a-upn", records[0].UserPrincipalName)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		_, err := parse(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		_, err := parse(strings.NewReader(sampleHeader + "\n"))
		assert.ErrorIs(t, err, ErrNoRecords)
	})

	t.Run("MissingRequiredColumn", func(t *testing.T) {
		input := "DisplayName,Password\njdoe,pw\n"
		_, err := parse(strings.NewReader(input))
		require.ErrorIs(t, err, ErrMissingRequired)
		assert.Contains(t, err.Error(), "UserPrincipalName")
	})
}

func TestParseFile(t *testing.T) {
	t.Run("ReadsFromDisk", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "users.csv")
		content := sampleHeader + "\nJane Doe,jdoe@contoso.com,pw,,,,,,,,,,\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		records, err := Parse(path)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Parse(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open input file")
	})
}
