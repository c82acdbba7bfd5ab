package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/continuing"
)

type continuingApi struct {
	svc *continuing.Service
}

func registerContinuingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *continuing.Service) {
	api := continuingApi{svc: svc}

	cg := g.Group("/continuing", jwt)

	cg.POST("", api.initiate)
	cg.GET("", api.listOwn)

	// detail endpoints; the proposition must belong to the caller (or caller is a manager)
	dg := cg.Group("/:id", api.ownerOrManagerMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("/training-choice", api.modifyTrainingChoice)
	dg.PUT("/curriculum", api.completeCurriculum)
	dg.POST("/submit", api.submit)
	dg.POST("/cancel", api.cancel)
	dg.DELETE("", api.destroy)

	// manager decisions
	dg.POST("/take-in-charge", api.takeInCharge, managerMiddleware())
	dg.POST("/put-on-hold", api.putOnHold, managerMiddleware())
	dg.POST("/approve-by-fac", api.approveByFac, managerMiddleware())
	dg.POST("/mark-to-validate", api.markToValidate, managerMiddleware())
	dg.POST("/validate", api.validate, managerMiddleware())
	dg.POST("/refuse", api.refuse, managerMiddleware())
	dg.POST("/close", api.close, managerMiddleware())
}

// Handlers

func (api *continuingApi) initiate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var cmd continuing.InitiateCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to InitiateCommand")
	}
	cmd.Matricule = claims.Matricule

	prop, err := api.svc.Initiate(cmd)
	if err != nil {
		return errors.Wrap(err, "initiating proposition")
	}
	return ctx.JSON(http.StatusCreated, prop)
}

func (api *continuingApi) listOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	props, err := api.svc.ListForApplicant(claims.Matricule)
	if err != nil {
		return errors.Wrap(err, "listing propositions")
	}
	if props == nil {
		props = []continuing.Proposition{}
	}
	return ctx.JSON(http.StatusOK, props)
}

func (api *continuingApi) retrieve(ctx echo.Context) error {
	prop, ok := ctx.Get("object").(continuing.Proposition)
	if !ok {
		return errors.Wrap(errPropNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *continuingApi) modifyTrainingChoice(ctx echo.Context) error {
	var cmd continuing.ModifyTrainingChoiceCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to ModifyTrainingChoiceCommand")
	}
	cmd.PropositionID = ctx.Param("id")

	prop, err := api.svc.ModifyTrainingChoice(cmd)
	if err != nil {
		return errors.Wrap(err, "modifying training choice")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *continuingApi) completeCurriculum(ctx echo.Context) error {
	var cmd continuing.CompleteCurriculumCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to CompleteCurriculumCommand")
	}
	cmd.PropositionID = ctx.Param("id")

	prop, err := api.svc.CompleteCurriculum(cmd)
	if err != nil {
		return errors.Wrap(err, "completing curriculum")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *continuingApi) submit(ctx echo.Context) error {
	prop, err := api.svc.Submit(continuing.SubmitCommand{PropositionID: ctx.Param("id")})
	if err != nil {
		return errors.Wrap(err, "submitting proposition")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *continuingApi) cancel(ctx echo.Context) error {
	cmd, err := bindDecision(ctx)
	if err != nil {
		return err
	}
	prop, err := api.svc.Cancel(continuing.DecisionCommand(cmd))
	if err != nil {
		return errors.Wrap(err, "cancelling proposition")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *continuingApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting proposition")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *continuingApi) takeInCharge(ctx echo.Context) error {
	return api.decide(ctx, api.svc.TakeInCharge, "taking proposition in charge")
}

func (api *continuingApi) putOnHold(ctx echo.Context) error {
	return api.decide(ctx, api.svc.PutOnHold, "putting proposition on hold")
}

func (api *continuingApi) approveByFac(ctx echo.Context) error {
	return api.decide(ctx, api.svc.ApproveByFac, "approving proposition by faculty")
}

func (api *continuingApi) markToValidate(ctx echo.Context) error {
	return api.decide(ctx, api.svc.MarkToValidate, "marking proposition to validate")
}

func (api *continuingApi) validate(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Validate, "validating proposition")
}

func (api *continuingApi) refuse(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Refuse, "refusing proposition")
}

func (api *continuingApi) close(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Close, "closing proposition")
}

func (api *continuingApi) decide(
	ctx echo.Context,
	do func(continuing.DecisionCommand) (continuing.Proposition, error),
	msg string,
) error {
	cmd, err := bindDecision(ctx)
	if err != nil {
		return err
	}
	prop, err := do(continuing.DecisionCommand(cmd))
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *continuingApi) ownerOrManagerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			prop, err := api.svc.Get(ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == admission.ErrPropositionNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding proposition by ID")
			}
			if prop.Matricule == claims.Matricule || claims.IsManager {
				ctx.Set("object", prop)
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}
