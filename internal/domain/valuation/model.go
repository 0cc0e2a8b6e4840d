package valuation

import (
	"bytes"
	"encoding/json"
	"time"
)

// RequiredFields lists the keys every predict request must carry.
var RequiredFields = []string{
	"city", "postcode", "property_subtype", "property_condition_type",
	"property_floor", "building_floor_count", "view_type", "orientation",
	"garden_access", "heating_type", "elevator_type", "room_cnt",
	"small_room_cnt", "created_at", "property_area", "balcony_area", "ad_view_cnt",
}

// FeatureNames is the column order the models were trained on.
var FeatureNames = []string{
	"postcode",
	"property_subtype",
	"property_condition_type",
	"property_floor",
	"building_floor_count",
	"view_type",
	"orientation",
	"garden_access",
	"heating_type",
	"elevator_type",
	"room_cnt",
	"small_room_cnt",
	"created_at",
	"property_area",
	"balcony_area",
	"meroszam",
}

// Features holds one value per FeatureNames entry. nil marks a value the encoder could
// not map; models receive it as null.
type Features []*float64

// Get returns the feature with the given name.
func (f Features) Get(name string) *float64 {
	for i, n := range FeatureNames {
		if n == name && i < len(f) {
			return f[i]
		}
	}
	return nil
}

// Vector flattens the features for distance search, with missing values as 0.
func (f Features) Vector() []float32 {
	out := make([]float32, len(FeatureNames))
	for i := range FeatureNames {
		if i < len(f) && f[i] != nil {
			out[i] = float32(*f[i])
		}
	}
	return out
}

// MarshalJSON emits a name → value object in training column order.
func (f Features) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range FeatureNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		if i >= len(f) || f[i] == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*f[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form produced by MarshalJSON.
func (f *Features) UnmarshalJSON(data []byte) error {
	var named map[string]*float64
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	out := make(Features, len(FeatureNames))
	for i, name := range FeatureNames {
		out[i] = named[name]
	}
	*f = out
	return nil
}

// Scores are the raw outputs of the three models, in millions of HUF.
type Scores struct {
	LinearRegression float64 `json:"linear_regression"`
	GBM              float64 `json:"gbm"`
	XGBM             float64 `json:"xgbm"`
}

// Response is the body returned by the predict endpoint.
type Response struct {
	PredictedPrice     float64 `json:"predicted_price"`
	PredictedPriceGBM  float64 `json:"predicted_price_gbm"`
	PredictedPriceXGBM float64 `json:"predicted_price_xgbm"`
}

// Record is one completed prediction kept for history and comparables.
type Record struct {
	ID        string            `json:"id"`
	Form      map[string]string `json:"form"`
	Features  Features          `json:"features"`
	Scores    Scores            `json:"scores"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Comparable is a past record close to a queried listing.
type Comparable struct {
	Record   Record  `json:"record"`
	Distance float64 `json:"distance"`
}

// Config wires runtime settings for the valuation domain.
type Config struct {
	RecentLimit    int
	MaxComparables int
	ArchivePrefix  string
}
