package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/general"
)

type generalApi struct {
	svc *general.Service
}

func registerGeneralAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *general.Service) {
	api := generalApi{svc: svc}

	gg := g.Group("/general", jwt)

	gg.POST("", api.initiate)
	gg.GET("", api.listOwn)

	// detail endpoints; the proposition must belong to the caller (or caller is a manager)
	dg := gg.Group("/:id", api.ownerOrManagerMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("/training-choice", api.modifyTrainingChoice)
	dg.PUT("/curriculum", api.completeCurriculum)
	dg.POST("/submit", api.submit)
	dg.POST("/cancel", api.cancel)
	dg.GET("/documents", api.listDocuments)

	// manager endpoints
	dg.PUT("/fee-payment", api.specifyFeePayment, managerMiddleware())
	dg.POST("/verify-curriculum", api.verifyCurriculum, managerMiddleware())
	dg.POST("/send-to-fac", api.sendToFac, managerMiddleware())
	dg.POST("/send-back-to-sic", api.sendBackToSic, managerMiddleware())
	dg.POST("/approve-by-fac", api.approveByFac, managerMiddleware())
	dg.POST("/refuse-by-fac", api.refuseByFac, managerMiddleware())
	dg.POST("/approve-by-sic", api.approveBySic, managerMiddleware())
	dg.POST("/refuse-by-sic", api.refuseBySic, managerMiddleware())
	dg.POST("/close", api.close, managerMiddleware())
	dg.POST("/documents/request", api.requestDocuments, managerMiddleware())
	dg.POST("/documents/cancel-request", api.cancelDocumentRequest, managerMiddleware())
	dg.POST("/documents/reset", api.resetDocuments, managerMiddleware())
}

// Handlers

func (api *generalApi) initiate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var cmd general.InitiateCommand
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

func (api *generalApi) listOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	props, err := api.svc.ListForApplicant(claims.Matricule)
	if err != nil {
		return errors.Wrap(err, "listing propositions")
	}
	if props == nil {
		props = []general.Proposition{}
	}
	return ctx.JSON(http.StatusOK, props)
}

func (api *generalApi) retrieve(ctx echo.Context) error {
	prop, ok := ctx.Get("object").(general.Proposition)
	if !ok {
		return errors.Wrap(errPropNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *generalApi) modifyTrainingChoice(ctx echo.Context) error {
	var cmd general.ModifyTrainingChoiceCommand
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

func (api *generalApi) completeCurriculum(ctx echo.Context) error {
	var cmd general.CompleteCurriculumCommand
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

func (api *generalApi) verifyCurriculum(ctx echo.Context) error {
	if err := api.svc.VerifyCurriculum(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "verifying curriculum")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *generalApi) submit(ctx echo.Context) error {
	prop, err := api.svc.Submit(general.SubmitCommand{PropositionID: ctx.Param("id")})
	if err != nil {
		return errors.Wrap(err, "submitting proposition")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *generalApi) specifyFeePayment(ctx echo.Context) error {
	var cmd general.SpecifyFeePaymentCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to SpecifyFeePaymentCommand")
	}
	cmd.PropositionID = ctx.Param("id")

	prop, err := api.svc.SpecifyFeePayment(cmd)
	if err != nil {
		return errors.Wrap(err, "specifying fee payment")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *generalApi) cancel(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Cancel, "cancelling proposition")
}

func (api *generalApi) sendToFac(ctx echo.Context) error {
	return api.decide(ctx, api.svc.SendToFac, "sending proposition to faculty")
}

func (api *generalApi) sendBackToSic(ctx echo.Context) error {
	return api.decide(ctx, api.svc.SendBackToSic, "sending proposition back to registration")
}

func (api *generalApi) approveByFac(ctx echo.Context) error {
	return api.decide(ctx, api.svc.ApproveByFac, "approving proposition by faculty")
}

func (api *generalApi) refuseByFac(ctx echo.Context) error {
	return api.decide(ctx, api.svc.RefuseByFac, "refusing proposition by faculty")
}

func (api *generalApi) approveBySic(ctx echo.Context) error {
	return api.decide(ctx, api.svc.ApproveBySic, "approving proposition by registration")
}

func (api *generalApi) refuseBySic(ctx echo.Context) error {
	return api.decide(ctx, api.svc.RefuseBySic, "refusing proposition by registration")
}

func (api *generalApi) close(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Close, "closing proposition")
}

func (api *generalApi) decide(
	ctx echo.Context,
	do func(general.DecisionCommand) (general.Proposition, error),
	msg string,
) error {
	cmd, err := bindDecision(ctx)
	if err != nil {
		return err
	}
	prop, err := do(general.DecisionCommand(cmd))
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *generalApi) listDocuments(ctx echo.Context) error {
	docs, err := api.svc.ListDocuments(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing documents")
	}
	if docs == nil {
		docs = []admission.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *generalApi) requestDocuments(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var cmd general.RequestDocumentsCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to RequestDocumentsCommand")
	}
	cmd.PropositionID = ctx.Param("id")
	cmd.Author = claims.Matricule

	prop, err := api.svc.RequestDocuments(cmd)
	if err != nil {
		return errors.Wrap(err, "requesting documents")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *generalApi) cancelDocumentRequest(ctx echo.Context) error {
	var cmd general.CancelDocumentRequestCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to CancelDocumentRequestCommand")
	}
	cmd.PropositionID = ctx.Param("id")

	if err := api.svc.CancelDocumentRequest(cmd); err != nil {
		return errors.Wrap(err, "cancelling document request")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *generalApi) resetDocuments(ctx echo.Context) error {
	docs, err := api.svc.ResetDocuments(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resetting documents")
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *generalApi) ownerOrManagerMiddleware() echo.MiddlewareFunc {
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
