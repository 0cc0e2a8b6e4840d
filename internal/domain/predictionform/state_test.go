package predictionform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFormStateDefaults(t *testing.T) {
	state := NewFormState()
	require.Len(t, state, 17)
	require.Equal(t, "1", state.Get(FieldCity))
	for _, name := range Fields() {
		if name == FieldCity {
			continue
		}
		require.Empty(t, state.Get(name), name)
	}
	require.NoError(t, state.Validate())
}

func TestFormStateWithDoesNotMutateReceiver(t *testing.T) {
	before := NewFormState()
	after := before.With(FieldPostcode, "1051")

	require.Equal(t, "", before.Get(FieldPostcode))
	require.Equal(t, "1051", after.Get(FieldPostcode))
	require.Len(t, after, 17)
}

func TestFormStateValidateRejectsKeySetDrift(t *testing.T) {
	missing := NewFormState()
	delete(missing, FieldOrientation)
	require.ErrorContains(t, missing.Validate(), "missing orientation")

	extra := NewFormState()
	extra["price"] = "1"
	require.ErrorContains(t, extra.Validate(), "unknown price")
}

func TestFormStateMarshalKeepsStringsAndOrder(t *testing.T) {
	state := NewFormState().With(FieldRoomCount, "3")
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	require.Contains(t, string(raw), `{"city":"1","postcode":""`)
	require.Contains(t, string(raw), `"room_cnt":"3"`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 17)
	for name, value := range decoded {
		_, isString := value.(string)
		require.True(t, isString, name)
	}
}

func TestAcceptsValue(t *testing.T) {
	for _, name := range []string{FieldPostcode, FieldRoomCount, FieldSmallRoomCount, FieldPropertyArea, FieldBalconyArea, FieldAdViewCount} {
		require.True(t, IsDigitOnly(name), name)
		require.True(t, AcceptsValue(name, ""), name)
		require.True(t, AcceptsValue(name, "0123"), name)
		require.False(t, AcceptsValue(name, "12a"), name)
		require.False(t, AcceptsValue(name, "1.5"), name)
		require.False(t, AcceptsValue(name, "-1"), name)
		require.False(t, AcceptsValue(name, "١٢"), name)
	}
	for _, name := range []string{FieldCity, FieldHeatingType, FieldCreatedAt, FieldPropertySubtype} {
		require.False(t, IsDigitOnly(name), name)
		require.True(t, AcceptsValue(name, "gas furnace, circulating hot water"), name)
		require.True(t, AcceptsValue(name, "2024-01-31"), name)
	}
}

func TestFormatPrice(t *testing.T) {
	lr, gbm, xgbm := 12.3, 11.9, 12.5
	result := PredictionResult{LinearRegression: &lr, GBM: &gbm, XGBM: &xgbm}

	formatted := result.Formatted()
	require.Equal(t, "12300000.00", formatted[0].Value)
	require.Equal(t, "11900000.00", formatted[1].Value)
	require.Equal(t, "12500000.00", formatted[2].Value)

	require.Equal(t, "-", FormatPrice(nil))
	small := 0.0000004
	require.Equal(t, "0.40", FormatPrice(&small))
}

func TestDistrictOptions(t *testing.T) {
	opts := OptionsFor(FieldCity)
	require.Len(t, opts, 23)
	require.Equal(t, Option{Value: "1", Label: "Budapest I."}, opts[0])
	require.Equal(t, Option{Value: "23", Label: "Budapest XXIII."}, opts[22])
	require.Nil(t, OptionsFor(FieldPostcode))
	require.Equal(t, "to be renovated", OptionsFor(FieldPropertyConditionType)[6].Label)
}

func TestSelectFieldsStartBlankExceptDistrict(t *testing.T) {
	selects := 0
	for _, name := range Fields() {
		opts := OptionsFor(name)
		if opts == nil || name == FieldCity {
			continue
		}
		selects++
		require.Equal(t, "", opts[0].Value, name)
		require.Equal(t, "", NewFormState().Get(name), name)
	}
	require.Equal(t, 9, selects)
}

func TestSessionViewHidesExpiredToast(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	session := NewSession("s1", now)
	view := session.View(now)
	require.Nil(t, view.Toast)
	require.False(t, view.OverlayOpen)
	require.Equal(t, "1", view.Values.Get(FieldCity))
	require.Len(t, view.Fields, 17)

	session.Toast = newToast(SubmitErrorMessage, SeverityError, now, 4*time.Second)
	require.NotNil(t, session.View(now.Add(3*time.Second)).Toast)
	require.Nil(t, session.View(now.Add(4*time.Second)).Toast)
}
