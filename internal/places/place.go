package places

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb"
)

// LocalizedText is the Places API text-with-language shape.
type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the location in orb's lon, lat order.
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

type Photo struct {
	Name               string            `json:"name"`
	WidthPx            int               `json:"widthPx"`
	HeightPx           int               `json:"heightPx"`
	AuthorAttributions []json.RawMessage `json:"authorAttributions"`
}

type AccessibilityOptions struct {
	WheelchairAccessibleParking  *bool `json:"wheelchairAccessibleParking"`
	WheelchairAccessibleEntrance *bool `json:"wheelchairAccessibleEntrance"`
	WheelchairAccessibleRestroom *bool `json:"wheelchairAccessibleRestroom"`
	WheelchairAccessibleSeating  *bool `json:"wheelchairAccessibleSeating"`
}

// GenerativeSummary accepts both the flat {"text"} form and the documented
// {"overview": {"text"}} form.
type GenerativeSummary struct {
	Text     string         `json:"text"`
	Overview *LocalizedText `json:"overview"`
}

// Place holds whichever fields the request mask asked for. Pointer fields
// are nil when the API omitted them.
type Place struct {
	ID               string         `json:"id"`
	DisplayName      *LocalizedText `json:"displayName"`
	FormattedAddress string         `json:"formattedAddress"`
	Location         *LatLng        `json:"location"`
	Rating           *float64       `json:"rating"`
	UserRatingCount  *int           `json:"userRatingCount"`

	InternationalPhoneNumber string `json:"internationalPhoneNumber"`
	WebsiteURI               string `json:"websiteUri"`

	DineIn          *bool `json:"dineIn"`
	Takeout         *bool `json:"takeout"`
	Delivery        *bool `json:"delivery"`
	ServesBreakfast *bool `json:"servesBreakfast"`
	ServesLunch     *bool `json:"servesLunch"`
	ServesDinner    *bool `json:"servesDinner"`
	ServesBrunch    *bool `json:"servesBrunch"`
	OutdoorSeating  *bool `json:"outdoorSeating"`
	LiveMusic       *bool `json:"liveMusic"`
	Reservable      *bool `json:"reservable"`
	AllowsDogs      *bool `json:"allowsDogs"`

	Types                  []string       `json:"types"`
	PrimaryType            string         `json:"primaryType"`
	PrimaryTypeDisplayName *LocalizedText `json:"primaryTypeDisplayName"`
	Photos                 []Photo        `json:"photos"`
	BusinessStatus         string         `json:"businessStatus"`
	PriceLevel             string         `json:"priceLevel"`

	RegularOpeningHours json.RawMessage `json:"regularOpeningHours"`
	CurrentOpeningHours json.RawMessage `json:"currentOpeningHours"`
	ParkingOptions      json.RawMessage `json:"parkingOptions"`
	PaymentOptions      json.RawMessage `json:"paymentOptions"`

	AccessibilityOptions *AccessibilityOptions `json:"accessibilityOptions"`
	EditorialSummary     *LocalizedText        `json:"editorialSummary"`
	GenerativeSummary    *GenerativeSummary    `json:"generativeSummary"`
}

// Name returns the display name text.
func (p *Place) Name() string {
	if p.DisplayName == nil {
		return ""
	}
	return p.DisplayName.Text
}

// Description prefers Google's editorial summary and falls back to the
// generative summary.
func (p *Place) Description() string {
	if p.EditorialSummary != nil && strings.TrimSpace(p.EditorialSummary.Text) != "" {
		return p.EditorialSummary.Text
	}
	if g := p.GenerativeSummary; g != nil {
		if g.Text != "" {
			return g.Text
		}
		if g.Overview != nil {
			return g.Overview.Text
		}
	}
	return ""
}

// TopPhotos returns at most n photos reduced to the stored fields.
func (p *Place) TopPhotos(n int) []Photo {
	if len(p.Photos) == 0 {
		return nil
	}
	if n > len(p.Photos) {
		n = len(p.Photos)
	}
	out := make([]Photo, n)
	for i, ph := range p.Photos[:n] {
		attrs := ph.AuthorAttributions
		if attrs == nil {
			attrs = []json.RawMessage{}
		}
		out[i] = Photo{Name: ph.Name, WidthPx: ph.WidthPx, HeightPx: ph.HeightPx, AuthorAttributions: attrs}
	}
	return out
}

// GoogleColumns maps the place onto the google_* columns of the properties
// table. Missing values are left out so a PATCH never blanks existing data.
// Lists and objects are encoded as JSON text.
func (p *Place) GoogleColumns() map[string]any {
	cols := make(map[string]any)
	setString := func(col, v string) {
		if v != "" {
			cols[col] = v
		}
	}
	setBool := func(col string, v *bool) {
		if v != nil {
			cols[col] = *v
		}
	}
	setJSON := func(col string, v any) {
		if b, err := json.Marshal(v); err == nil {
			cols[col] = string(b)
		}
	}
	setRaw := func(col string, raw json.RawMessage) {
		if len(raw) > 0 && string(raw) != "null" {
			cols[col] = string(raw)
		}
	}

	setString("google_phone_number", p.InternationalPhoneNumber)
	setString("google_website_uri", p.WebsiteURI)
	setBool("google_dine_in", p.DineIn)
	setBool("google_takeout", p.Takeout)
	setBool("google_delivery", p.Delivery)
	setBool("google_serves_breakfast", p.ServesBreakfast)
	setBool("google_serves_lunch", p.ServesLunch)
	setBool("google_serves_dinner", p.ServesDinner)
	setBool("google_serves_brunch", p.ServesBrunch)
	setBool("google_outdoor_seating", p.OutdoorSeating)
	setBool("google_live_music", p.LiveMusic)
	if len(p.Types) > 0 {
		setJSON("google_place_types", p.Types)
	}
	setString("google_primary_type", p.PrimaryType)
	if p.PrimaryTypeDisplayName != nil {
		setString("google_primary_type_display_name", p.PrimaryTypeDisplayName.Text)
	}
	if photos := p.TopPhotos(5); len(photos) > 0 {
		setJSON("google_photos", photos)
	}
	setBool("google_reservable", p.Reservable)
	setString("google_business_status", p.BusinessStatus)
	setRaw("google_opening_hours", p.RegularOpeningHours)
	setRaw("google_current_opening_hours", p.CurrentOpeningHours)
	setRaw("google_parking_options", p.ParkingOptions)
	setString("google_price_level", p.PriceLevel)
	setRaw("google_payment_options", p.PaymentOptions)
	if a := p.AccessibilityOptions; a != nil {
		setBool("google_wheelchair_accessible_parking", a.WheelchairAccessibleParking)
		setBool("google_wheelchair_accessible_entrance", a.WheelchairAccessibleEntrance)
		setBool("google_wheelchair_accessible_restroom", a.WheelchairAccessibleRestroom)
		setBool("google_wheelchair_accessible_seating", a.WheelchairAccessibleSeating)
	}
	setBool("google_allows_dogs", p.AllowsDogs)
	setString("google_description", p.Description())
	return cols
}
