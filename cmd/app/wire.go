//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/flat-price/internal/bootstrap"
	"github.com/yanqian/flat-price/internal/domain/predictionform"
	"github.com/yanqian/flat-price/internal/infra/config"
	"github.com/yanqian/flat-price/internal/infra/predictapi"
	httpiface "github.com/yanqian/flat-price/internal/interface/http"
	"github.com/yanqian/flat-price/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFormConfig,
		provideValuationConfig,
		providePredictClient,
		provideFormStore,
		provideHistoryRepository,
		provideSampleArchive,
		provideEventPublisher,
		provideValuationService,
		provideHealthHandler,
		predictionform.NewService,
		wire.Bind(new(predictionform.Predictor), new(*predictapi.Client)),
		httpiface.NewSessionCookies,
		httpiface.NewFormHandler,
		httpiface.NewValuationHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
