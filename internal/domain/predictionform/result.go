package predictionform

import "github.com/shopspring/decimal"

// PriceUnit is the factor between a model output (millions) and the displayed price.
var PriceUnit = decimal.NewFromInt(1_000_000)

// Currency is appended to every displayed price.
const Currency = "HUF"

// PredictionResult carries the three model outputs in millions of HUF. A nil value
// means the model produced no number.
type PredictionResult struct {
	LinearRegression *float64 `json:"predicted_price"`
	GBM              *float64 `json:"predicted_price_gbm"`
	XGBM             *float64 `json:"predicted_price_xgbm"`
}

// IsEmpty reports whether no model produced a value.
func (r PredictionResult) IsEmpty() bool {
	return r.LinearRegression == nil && r.GBM == nil && r.XGBM == nil
}

// FormattedPrediction is the display form of one model output.
type FormattedPrediction struct {
	Model string `json:"model"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Formatted renders the three outputs in display order.
func (r PredictionResult) Formatted() []FormattedPrediction {
	return []FormattedPrediction{
		{Model: "lr", Label: "LR Prediction", Value: FormatPrice(r.LinearRegression)},
		{Model: "gbm", Label: "GBM Prediction", Value: FormatPrice(r.GBM)},
		{Model: "xgbm", Label: "XGBM Prediction", Value: FormatPrice(r.XGBM)},
	}
}

// FormatPrice converts millions to a plain amount fixed to two decimals,
// or "-" when the value is missing.
func FormatPrice(millions *float64) string {
	if millions == nil {
		return "-"
	}
	return decimal.NewFromFloat(*millions).Mul(PriceUnit).StringFixed(2)
}
