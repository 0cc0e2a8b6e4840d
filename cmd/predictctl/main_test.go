package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
)

type stubPredictor struct {
	got    predictionform.FormState
	result predictionform.PredictionResult
	err    error
}

func (s *stubPredictor) Predict(_ context.Context, form predictionform.FormState) (predictionform.PredictionResult, error) {
	s.got = form
	return s.result, s.err
}

func TestRunPredictPrintsTable(t *testing.T) {
	lr, gbm := 12.3, 11.9
	predictor := &stubPredictor{result: predictionform.PredictionResult{LinearRegression: &lr, GBM: &gbm}}
	var out bytes.Buffer

	err := runPredict(context.Background(), predictor, map[string]string{"postcode": "1134", "room_cnt": "2"}, "table", &out)
	require.NoError(t, err)
	require.Equal(t, "1", predictor.got.Get(predictionform.FieldCity))
	require.Equal(t, "1134", predictor.got.Get(predictionform.FieldPostcode))
	require.Contains(t, out.String(), "12300000.00 HUF")
	require.Contains(t, out.String(), "11900000.00 HUF")
	require.Contains(t, out.String(), "- HUF")
}

func TestRunPredictJSON(t *testing.T) {
	xgbm := 12.5
	predictor := &stubPredictor{result: predictionform.PredictionResult{XGBM: &xgbm}}
	var out bytes.Buffer

	require.NoError(t, runPredict(context.Background(), predictor, nil, "json", &out))

	var got []predictionform.FormattedPrediction
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 3)
	require.Equal(t, "12500000.00", got[2].Value)
}

func TestRunPredictRejectsNonDigitInput(t *testing.T) {
	predictor := &stubPredictor{}
	err := runPredict(context.Background(), predictor, map[string]string{"room_cnt": "two"}, "table", &bytes.Buffer{})
	require.Error(t, err)
	require.Nil(t, predictor.got)
}

func TestRunPredictWrapsFailure(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("predict request error: status=500")}
	err := runPredict(context.Background(), predictor, nil, "table", &bytes.Buffer{})
	require.ErrorContains(t, err, "Error submitting the form")
}

func TestPrintFields(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printFields(&out))
	require.Contains(t, out.String(), "ad_view_cnt")
	require.Contains(t, out.String(), "Listing Date")
}
