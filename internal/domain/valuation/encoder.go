package valuation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/flat-price/pkg/util"
)

// listingEpoch is day zero of the created_at feature.
var listingEpoch = time.Date(2015, 2, 9, 0, 0, 0, 0, time.UTC)

var conditionCodes = map[string]float64{
	"to_be_renovated":    1,
	"missing_info":       1,
	"medium":             2,
	"under_construction": 2,
	"good":               3,
	"renewed":            3,
	"can_move_in":        4,
	"new_construction":   4,
	"novel":              4,
}

// floorCodes folds the floor into basement, ground, mezzanine, low, mid, high, very high.
var floorCodes = map[string]float64{
	"basement":        0,
	"ground floor":    1,
	"mezzanine floor": 2,
	"1":               3,
	"2":               3,
	"3":               3,
	"4":               4,
	"5":               4,
	"6":               4,
	"7":               4,
	"8":               5,
	"9":               5,
	"10":              5,
	"10 plus":         6,
}

// buildingHeightCodes folds the floor count into single, low, mid, high and very high rise.
var buildingHeightCodes = map[string]float64{
	"1":            0,
	"2":            1,
	"3":            1,
	"4":            2,
	"5":            2,
	"6":            2,
	"7":            3,
	"8":            3,
	"9":            3,
	"10":           3,
	"more than 10": 4,
}

var viewCodes = map[string]float64{
	"street view":    1,
	"courtyard view": 2,
	"garden view":    3,
	"panoramic":      4,
}

var orientationCodes = map[string]float64{
	"unknown":    0,
	"north":      1,
	"north-west": 1,
	"north-east": 1,
	"east":       2,
	"west":       2,
	"south":      3,
	"south-west": 3,
	"south-east": 3,
}

var yesNoCodes = map[string]float64{"no": 0, "yes": 1}

var heatingGroups = map[string]string{
	"gas furnace, circulating hot water": "central",
	"circulating hot water":              "central",
	"district heating":                   "central",
	"central heating with own meter":     "central",
	"central heating":                    "central",
	"konvection gas burner":              "gas",
	"tile stove (gas)":                   "gas",
	"gas furnace":                        "gas",
	"electric":                           "electric",
	"fan-coil":                           "electric",
	"other":                              "other",
}

var heatingCodes = map[string]float64{
	"unknown":  0,
	"gas":      1,
	"central":  2,
	"electric": 3,
	"other":    4,
}

// FieldError reports a value that cannot be encoded.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: cannot encode %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Encode turns the raw form values into the model feature vector. now anchors the
// active-days computation behind meroszam (views per hundred active days). A key
// absent from form stands for a JSON null, which differs from "" for orientation.
func Encode(form map[string]string, now time.Time) (Features, error) {
	features := make(Features, len(FeatureNames))
	set := func(name string, value *float64) {
		for i, n := range FeatureNames {
			if n == name {
				features[i] = value
				return
			}
		}
	}

	for _, name := range []string{"postcode", "room_cnt", "small_room_cnt", "property_area", "balcony_area"} {
		value, err := parseNumber(form[name])
		if err != nil {
			return nil, &FieldError{Field: name, Value: form[name], Err: err}
		}
		set(name, ptr(value))
	}

	// A single submitted row always ranks first among its distinct subtypes.
	set("property_subtype", ptr(1))
	set("property_condition_type", lookup(conditionCodes, form["property_condition_type"]))
	set("property_floor", lookup(floorCodes, form["property_floor"]))
	set("building_floor_count", lookupOr(buildingHeightCodes, form["building_floor_count"], -1))
	set("view_type", lookupOr(viewCodes, form["view_type"], 0))
	set("orientation", encodeOrientation(form))
	set("garden_access", lookup(yesNoCodes, form["garden_access"]))
	set("elevator_type", lookup(yesNoCodes, form["elevator_type"]))
	set("heating_type", encodeHeating(form["heating_type"]))

	createdRaw := strings.TrimSpace(form["created_at"])
	if createdRaw != "" {
		created, err := parseDate(createdRaw)
		if err != nil {
			return nil, &FieldError{Field: "created_at", Value: createdRaw, Err: err}
		}
		set("created_at", ptr(float64(util.FloorDays(listingEpoch, created))))

		activeDays := util.FloorDays(created, now)
		if activeDays != 0 {
			views := coerceCount(form["ad_view_cnt"])
			set("meroszam", ptr(views/float64(activeDays)*100))
		}
	}
	return features, nil
}

// encodeOrientation maps only a null orientation to unknown; "" and unmapped
// directions stay null.
func encodeOrientation(form map[string]string) *float64 {
	raw, ok := form["orientation"]
	if !ok {
		raw = "unknown"
	}
	return lookup(orientationCodes, raw)
}

func encodeHeating(raw string) *float64 {
	group, ok := heatingGroups[strings.TrimSpace(raw)]
	if !ok {
		group = "unknown"
	}
	return ptr(heatingCodes[group])
}

func parseNumber(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("value is empty")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("value is not finite")
	}
	return value, nil
}

// coerceCount parses a view counter, treating anything non-numeric as zero views.
func coerceCount(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return float64(int64(value))
}

func parseDate(raw string) (time.Time, error) {
	layouts := []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}
	var lastErr error
	for _, layout := range layouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func lookup(codes map[string]float64, raw string) *float64 {
	value, ok := codes[strings.TrimSpace(raw)]
	if !ok {
		return nil
	}
	return ptr(value)
}

func lookupOr(codes map[string]float64, raw string, fallback float64) *float64 {
	if value := lookup(codes, raw); value != nil {
		return value
	}
	return ptr(fallback)
}

func ptr(v float64) *float64 {
	return &v
}
