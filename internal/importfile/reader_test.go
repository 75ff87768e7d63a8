package importfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expopass/server/internal/domain/locations"
)

func TestReadCSV(t *testing.T) {
	input := `Country Name,countryCode,State,State Code,City,Pincode,Area
India,IN,Gujarat,GJ,Ahmedabad,380001,Ellis Bridge
India,IN,Gujarat,GJ,Ahmedabad,380001

India,IN,Gujarat,GJ,Surat,395003,Athwa
`
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3, "blank lines dropped")

	assert.Equal(t, locations.ImportRow{
		CountryName: "India",
		CountryCode: "IN",
		StateName:   "Gujarat",
		StateCode:   "GJ",
		City:        "Ahmedabad",
		Pincode:     "380001",
		Area:        "Ellis Bridge",
	}, rows[0])
	assert.Empty(t, rows[1].Area, "missing trailing cell reads as empty area")
	assert.Equal(t, "Surat", rows[2].City)
}

func TestReadCSVHeaderAliases(t *testing.T) {
	input := "country,statecode,cityname,zipcode\nIndia,GJ,Ahmedabad,380001\n"
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "India", rows[0].CountryName)
	assert.Equal(t, "380001", rows[0].Pincode)
}

func TestReadCSVRejectsUnusableInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty file")

	_, err = ReadCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorContains(t, err, "no recognized columns")
}

func TestReadDispatchesOnExtension(t *testing.T) {
	rows, err := Read(strings.NewReader("pincode,city\n380001,Ahmedabad\n"), "upload.CSV")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = Read(strings.NewReader(`[{"pincode":"380001","city":"Ahmedabad"}]`), "rows.json")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Read(strings.NewReader(""), "upload.pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadJSON(t *testing.T) {
	array := `[{"countryName":"India","countryCode":"IN","stateName":"Gujarat","stateCode":"GJ","city":"Ahmedabad","pincode":"380001","area":"Ellis Bridge"}]`
	rows, err := ReadJSON(strings.NewReader(array))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ellis Bridge", rows[0].Area)

	wrapped := `{"rows":[{"city":"Surat","pincode":"395003"}]}`
	rows, err = ReadJSON(strings.NewReader(wrapped))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Surat", rows[0].City)

	_, err = ReadJSON(strings.NewReader("not json"))
	assert.ErrorContains(t, err, "parse json rows")
}
