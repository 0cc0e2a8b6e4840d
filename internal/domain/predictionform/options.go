package predictionform

import (
	"strconv"
	"strings"
)

// Option is one entry of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var romanDistricts = []string{
	"I.", "II.", "III.", "IV.", "V.", "VI.", "VII.", "VIII.", "IX.", "X.",
	"XI.", "XII.", "XIII.", "XIV.", "XV.", "XVI.", "XVII.", "XVIII.", "XIX.", "XX.",
	"XXI.", "XXII.", "XXIII.",
}

// blank leads every select except the district, so an untouched field stays empty.
var blank = Option{Value: "", Label: "-- Select --"}

var fieldOptions = map[string][]Option{
	FieldCity: districtOptions(),
	FieldPropertySubtype: {
		blank,
		{Value: "prefabricated panel flat (for sale)", Label: "Panel Flat (Sale)"},
		{Value: "brick flat (for sale)", Label: "Brick Flat (Sale)"},
		{Value: "terraced house", Label: "Terraced House"},
		{Value: "prefabricated panel flat (for rent)", Label: "Panel Flat (Rent)"},
	},
	FieldPropertyConditionType: withBlank(underscoreLabels(
		"good", "novel", "medium", "renewed", "new_construction",
		"to_be_renovated", "can_move_in", "missing_info", "under_construction",
	)),
	FieldPropertyFloor: withBlank(plain(
		"basement", "ground floor", "mezzanine floor",
		"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "10 plus",
	)),
	FieldBuildingFloorCount: withBlank(plain("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "more than 10")),
	FieldViewType:           withBlank(plain("garden view", "street view", "courtyard view", "panoramic")),
	FieldOrientation: withBlank(plain(
		"east", "west", "south", "north", "south-east", "south-west", "north-east", "north-west",
	)),
	FieldGardenAccess: withBlank(yesNo()),
	FieldHeatingType: withBlank(plain(
		"gas furnace, circulating hot water", "konvection gas burner", "district heating",
		"central heating with own meter", "tile stove (gas)", "central heating", "electric",
		"other", "fan-coil", "gas furnace", "gas + solar",
	)),
	FieldElevatorType: withBlank(yesNo()),
}

// OptionsFor returns the choices of a select field, or nil for free-text fields.
func OptionsFor(field string) []Option {
	opts, ok := fieldOptions[field]
	if !ok {
		return nil
	}
	out := make([]Option, len(opts))
	copy(out, opts)
	return out
}

func districtOptions() []Option {
	out := make([]Option, 0, len(romanDistricts))
	for i, numeral := range romanDistricts {
		out = append(out, Option{Value: strconv.Itoa(i + 1), Label: "Budapest " + numeral})
	}
	return out
}

func withBlank(opts []Option) []Option {
	return append([]Option{blank}, opts...)
}

func plain(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Label: v})
	}
	return out
}

func underscoreLabels(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Label: strings.ReplaceAll(v, "_", " ")})
	}
	return out
}

func yesNo() []Option {
	return []Option{{Value: "no", Label: "No"}, {Value: "yes", Label: "Yes"}}
}
