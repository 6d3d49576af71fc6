package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Property holds the fields shared by the CSV exports and the hosted table.
// Google-derived columns beyond these stay on the raw row.
type Property struct {
	ID       int64
	Name     string
	SiteName string
	UnitType string
	Source   string

	Address string
	City    string
	State   string
	Country string
	ZipCode string

	Latitude  string
	Longitude string

	URL              string
	GoogleWebsiteURI string
	GooglePhone      string
	GoogleRating     string
	GoogleReviews    string
	Description      string
}

// CSV header names as they appear in the exported spreadsheets.
const (
	ColPropertyName = "Property Name"
	ColSiteName     = "Site Name"
	ColUnitType     = "Unit Type"
	ColAddress      = "Address"
	ColCity         = "City"
	ColState        = "State"
	ColCountry      = "Country"
	ColZipCode      = "Zip Code"
	ColLatitude     = "Latitude"
	ColLongitude    = "Longitude"
	ColURL          = "Url"
	ColSource       = "Source"

	ColGooglePhone      = "Google Phone Number"
	ColGoogleWebsite    = "Google Website URI"
	ColGoogleRating     = "Google Rating"
	ColGoogleReviews    = "Google Review Count"
	ColGooglePrimary    = "Google Primary Type"
	ColGooglePlaceTypes = "Google Place Types"
	ColGooglePhotoCount = "Google Photos Count"

	ColFetchedLatitude  = "Fetched Latitude"
	ColFetchedLongitude = "Fetched Longitude"
	ColDistanceKm       = "Distance (km)"
	ColCoordinateMatch  = "Coordinate Match"
)

// Coordinate Match values written by the comparison step.
const (
	CoordMatch         = "Match"
	CoordMismatch      = "Mismatch"
	CoordNoExisting    = "No Existing"
	CoordCannotCompare = "Cannot Compare"
	CoordError         = "Error"
)

// KeyColumns lead every reordered export.
var KeyColumns = []string{
	ColPropertyName, ColSiteName, ColUnitType, ColAddress, ColCity, ColState, ColCountry, ColURL,
}

// Table and column names in the hosted store.
const (
	TableProperties = "all_glamping_properties"
	TableSageData   = "sage-glamping-data"

	FieldID               = "id"
	FieldPropertyName     = "property_name"
	FieldSiteName         = "site_name"
	FieldAddress          = "address"
	FieldCity             = "city"
	FieldState            = "state"
	FieldCountry          = "country"
	FieldLatitude         = "lat"
	FieldLongitude        = "lon"
	FieldURL              = "url"
	FieldDescription      = "description"
	FieldGooglePhone      = "google_phone_number"
	FieldGoogleWebsiteURI = "google_website_uri"
	FieldGoogleRating     = "google_rating"
	FieldGoogleRatingsN   = "google_user_rating_total"
)

// FromCSV builds a Property from a header-keyed CSV record.
func FromCSV(rec map[string]string) Property {
	get := func(k string) string { return strings.TrimSpace(rec[k]) }
	return Property{
		Name:             get(ColPropertyName),
		SiteName:         get(ColSiteName),
		UnitType:         get(ColUnitType),
		Source:           get(ColSource),
		Address:          get(ColAddress),
		City:             get(ColCity),
		State:            get(ColState),
		Country:          get(ColCountry),
		ZipCode:          get(ColZipCode),
		Latitude:         get(ColLatitude),
		Longitude:        get(ColLongitude),
		URL:              get(ColURL),
		GoogleWebsiteURI: get(ColGoogleWebsite),
		GooglePhone:      get(ColGooglePhone),
		GoogleRating:     get(ColGoogleRating),
		GoogleReviews:    get(ColGoogleReviews),
	}
}

// FromFields builds a Property from a decoded table row. Missing or null
// columns stay empty.
func FromFields(row map[string]any) Property {
	get := func(k string) string {
		v, ok := row[k]
		if !ok || v == nil {
			return ""
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return strings.TrimSpace(fmt.Sprint(t))
		}
	}
	p := Property{
		Name:             get(FieldPropertyName),
		SiteName:         get(FieldSiteName),
		Address:          get(FieldAddress),
		City:             get(FieldCity),
		State:            get(FieldState),
		Country:          get(FieldCountry),
		Latitude:         get(FieldLatitude),
		Longitude:        get(FieldLongitude),
		URL:              get(FieldURL),
		GoogleWebsiteURI: get(FieldGoogleWebsiteURI),
		GooglePhone:      get(FieldGooglePhone),
		GoogleRating:     get(FieldGoogleRating),
		GoogleReviews:    get(FieldGoogleRatingsN),
		Description:      get(FieldDescription),
	}
	if id, err := strconv.ParseInt(get(FieldID), 10, 64); err == nil {
		p.ID = id
	}
	return p
}

// Key identifies a property/site pair across CSV files.
func (p Property) Key() string {
	return p.Name + "|" + p.SiteName
}
