package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/udahili/core/admission"
)

type trainingApi struct {
	repo admission.TrainingRepository
}

func registerTrainingAPI(g *echo.Group, jwt echo.MiddlewareFunc, repo admission.TrainingRepository) {
	api := trainingApi{repo: repo}

	tg := g.Group("/trainings", jwt)
	tg.GET("", api.search)
}

type trainingSearchRequest struct {
	Term    string `query:"term"`
	Year    int    `query:"year"`
	Context string `query:"context"` // general | continuing | doctorate
}

// Handlers

func (api *trainingApi) search(ctx echo.Context) error {
	var query trainingSearchRequest
	if err := ctx.Bind(&query); err != nil {
		return ctx.JSON(http.StatusOK, []admission.Training{})
	}

	var types []admission.TrainingType
	switch query.Context {
	case "general":
		types = admission.GeneralEducationTypes
	case "continuing":
		types = admission.ContinuingEducationTypes
	case "doctorate":
		types = admission.DoctorateTypes
	}

	trainings, err := api.repo.SearchTrainings(query.Term, query.Year, types...)
	if err != nil {
		return errors.Wrap(err, "searching trainings")
	}
	if trainings == nil {
		trainings = []admission.Training{}
	}
	return ctx.JSON(http.StatusOK, trainings)
}
