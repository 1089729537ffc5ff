package container

import (
	"log/slog"

	app "defect-bot/internal/application"
	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

type Container struct {
	UserService       *app.UserService
	PredictionService *app.PredictionService
	History           *app.HistoryStore
	InspectionService *app.InspectionService
}

func New(userRepo port.UserRepository, classifier port.DefectClassifier, kv port.KeyValueStore, preparer port.ImagePreparer, logger *slog.Logger) *Container {
	userService := app.NewUserService(userRepo)
	predictionService := app.NewPredictionService(classifier, entity.DefaultClassTable, logger)
	history := app.NewHistoryStore(kv, logger)
	inspectionService := app.NewInspectionService(userService, predictionService, history, preparer, logger)

	return &Container{
		UserService:       userService,
		PredictionService: predictionService,
		History:           history,
		InspectionService: inspectionService,
	}
}
