package predictionform

// Field names accepted by the form and sent verbatim to the prediction endpoint.
const (
	FieldCity                  = "city"
	FieldPostcode              = "postcode"
	FieldPropertySubtype       = "property_subtype"
	FieldPropertyConditionType = "property_condition_type"
	FieldPropertyFloor         = "property_floor"
	FieldBuildingFloorCount    = "building_floor_count"
	FieldViewType              = "view_type"
	FieldOrientation           = "orientation"
	FieldGardenAccess          = "garden_access"
	FieldHeatingType           = "heating_type"
	FieldElevatorType          = "elevator_type"
	FieldRoomCount             = "room_cnt"
	FieldSmallRoomCount        = "small_room_cnt"
	FieldCreatedAt             = "created_at"
	FieldPropertyArea          = "property_area"
	FieldBalconyArea           = "balcony_area"
	FieldAdViewCount           = "ad_view_cnt"
)

// DefaultCity is the district preselected on a new form (Budapest I.).
const DefaultCity = "1"

var fieldOrder = []string{
	FieldCity,
	FieldPostcode,
	FieldPropertySubtype,
	FieldPropertyConditionType,
	FieldPropertyFloor,
	FieldBuildingFloorCount,
	FieldViewType,
	FieldOrientation,
	FieldGardenAccess,
	FieldHeatingType,
	FieldElevatorType,
	FieldRoomCount,
	FieldSmallRoomCount,
	FieldCreatedAt,
	FieldPropertyArea,
	FieldBalconyArea,
	FieldAdViewCount,
}

var digitOnlyFields = map[string]struct{}{
	FieldPostcode:       {},
	FieldRoomCount:      {},
	FieldSmallRoomCount: {},
	FieldPropertyArea:   {},
	FieldBalconyArea:    {},
	FieldAdViewCount:    {},
}

var fieldLabels = map[string]string{
	FieldCity:                  "District",
	FieldPostcode:              "Postcode",
	FieldPropertySubtype:       "Property Subtype",
	FieldPropertyConditionType: "Condition",
	FieldPropertyFloor:         "Floor",
	FieldBuildingFloorCount:    "Total Floors in Building",
	FieldViewType:              "View",
	FieldOrientation:           "Orientation",
	FieldGardenAccess:          "Garden Access",
	FieldHeatingType:           "Heating Type",
	FieldElevatorType:          "Elevator",
	FieldRoomCount:             "Room Count",
	FieldSmallRoomCount:        "Small Room Count",
	FieldCreatedAt:             "Listing Date",
	FieldPropertyArea:          "Property Area (m²)",
	FieldBalconyArea:           "Balcony Area (m²)",
	FieldAdViewCount:           "Ad View Count",
}

var knownFields = func() map[string]struct{} {
	out := make(map[string]struct{}, len(fieldOrder))
	for _, name := range fieldOrder {
		out[name] = struct{}{}
	}
	return out
}()

// Fields returns the field names in display order.
func Fields() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// IsField reports whether name is one of the form fields.
func IsField(name string) bool {
	_, ok := knownFields[name]
	return ok
}

// IsDigitOnly reports whether the field only accepts ASCII digits.
func IsDigitOnly(name string) bool {
	_, ok := digitOnlyFields[name]
	return ok
}

// Label returns the human readable caption of a field.
func Label(name string) string {
	if label, ok := fieldLabels[name]; ok {
		return label
	}
	return name
}

// AcceptsValue applies the input filter of a field. Digit-only fields take the empty
// string or a run of 0-9; everything else takes any string.
func AcceptsValue(name, value string) bool {
	if !IsDigitOnly(name) {
		return true
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
