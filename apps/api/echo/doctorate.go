package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/doctorate"
)

type doctorateApi struct {
	svc *doctorate.Service
}

func registerDoctorateAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *doctorate.Service) {
	api := doctorateApi{svc: svc}

	dg := g.Group("/doctorate", jwt)

	dg.POST("", api.initiate)
	dg.GET("", api.listOwn)

	// detail endpoints; the proposition must belong to the caller (or caller is a manager)
	pg := dg.Group("/:id", api.ownerOrManagerMiddleware())
	pg.GET("", api.retrieve)
	pg.PUT("/project", api.completeProject)
	pg.PUT("/curriculum", api.completeCurriculum)
	pg.GET("/supervision", api.retrieveGroup)
	pg.POST("/supervision/promoter", api.addPromoter)
	pg.POST("/supervision/ca-member", api.addCaMember)
	pg.POST("/supervision/remove-member", api.removeMember)
	pg.POST("/supervision/reference-promoter", api.designateReferencePromoter)
	pg.POST("/invite-to-sign", api.inviteToSign)
	pg.POST("/resend-invitations", api.resendInvitations)
	pg.POST("/submit", api.submit)

	// signatories act on their own behalf; membership is checked by the service
	sg := dg.Group("/:id/signatures")
	sg.POST("/approve", api.approveSignature)
	sg.POST("/refuse", api.refuseSignature)

	// manager decisions
	pg.POST("/approve", api.approve, managerMiddleware())
	pg.POST("/refuse", api.refuse, managerMiddleware())
	pg.POST("/close", api.close, managerMiddleware())
	pg.POST("/cancel", api.cancel, managerMiddleware())
}

// Handlers

func (api *doctorateApi) initiate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var cmd doctorate.InitiateCommand
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

func (api *doctorateApi) listOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	props, err := api.svc.ListForApplicant(claims.Matricule)
	if err != nil {
		return errors.Wrap(err, "listing propositions")
	}
	if props == nil {
		props = []doctorate.Proposition{}
	}
	return ctx.JSON(http.StatusOK, props)
}

func (api *doctorateApi) retrieve(ctx echo.Context) error {
	prop, ok := ctx.Get("object").(doctorate.Proposition)
	if !ok {
		return errors.Wrap(errPropNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *doctorateApi) retrieveGroup(ctx echo.Context) error {
	group, err := api.svc.GetGroup(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting supervision group")
	}
	return ctx.JSON(http.StatusOK, group)
}

func (api *doctorateApi) completeProject(ctx echo.Context) error {
	var cmd doctorate.CompleteProjectCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to CompleteProjectCommand")
	}
	cmd.PropositionID = ctx.Param("id")

	prop, err := api.svc.CompleteProject(cmd)
	if err != nil {
		return errors.Wrap(err, "completing project")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *doctorateApi) completeCurriculum(ctx echo.Context) error {
	var cmd doctorate.CompleteCurriculumCommand
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

func (api *doctorateApi) addPromoter(ctx echo.Context) error {
	return api.editMember(ctx, api.svc.AddPromoter, "adding promoter")
}

func (api *doctorateApi) addCaMember(ctx echo.Context) error {
	return api.editMember(ctx, api.svc.AddCaMember, "adding committee member")
}

func (api *doctorateApi) removeMember(ctx echo.Context) error {
	return api.editMember(ctx, api.svc.RemoveMember, "removing member")
}

func (api *doctorateApi) designateReferencePromoter(ctx echo.Context) error {
	return api.editMember(ctx, api.svc.DesignateReferencePromoter, "designating reference promoter")
}

func (api *doctorateApi) editMember(
	ctx echo.Context,
	do func(doctorate.MemberCommand) error,
	msg string,
) error {
	var cmd doctorate.MemberCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to MemberCommand")
	}
	cmd.PropositionID = ctx.Param("id")

	if err := do(cmd); err != nil {
		return errors.Wrap(err, msg)
	}

	group, err := api.svc.GetGroup(cmd.PropositionID)
	if err != nil {
		return errors.Wrap(err, "getting supervision group")
	}
	return ctx.JSON(http.StatusOK, group)
}

func (api *doctorateApi) inviteToSign(ctx echo.Context) error {
	prop, err := api.svc.InviteToSign(doctorate.SubmitCommand{PropositionID: ctx.Param("id")})
	if err != nil {
		return errors.Wrap(err, "inviting signatories")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *doctorateApi) resendInvitations(ctx echo.Context) error {
	prop, err := api.svc.ResendInvitations(doctorate.SubmitCommand{PropositionID: ctx.Param("id")})
	if err != nil {
		return errors.Wrap(err, "resending signature invitations")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *doctorateApi) approveSignature(ctx echo.Context) error {
	return api.sign(ctx, api.svc.ApproveBySignatory, "approving as signatory")
}

func (api *doctorateApi) refuseSignature(ctx echo.Context) error {
	return api.sign(ctx, api.svc.RefuseBySignatory, "refusing as signatory")
}

func (api *doctorateApi) sign(
	ctx echo.Context,
	do func(doctorate.SignatureCommand) error,
	msg string,
) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var cmd doctorate.SignatureCommand
	if err := ctx.Bind(&cmd); err != nil {
		return errors.Wrap(err, "binding to SignatureCommand")
	}
	cmd.PropositionID = ctx.Param("id")
	cmd.Matricule = claims.Matricule

	if err := do(cmd); err != nil {
		return errors.Wrap(err, msg)
	}

	group, err := api.svc.GetGroup(cmd.PropositionID)
	if err != nil {
		return errors.Wrap(err, "getting supervision group")
	}
	return ctx.JSON(http.StatusOK, group)
}

func (api *doctorateApi) submit(ctx echo.Context) error {
	prop, err := api.svc.Submit(doctorate.SubmitCommand{PropositionID: ctx.Param("id")})
	if err != nil {
		return errors.Wrap(err, "submitting proposition")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *doctorateApi) approve(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Approve, "approving proposition")
}

func (api *doctorateApi) refuse(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Refuse, "refusing proposition")
}

func (api *doctorateApi) close(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Close, "closing proposition")
}

func (api *doctorateApi) cancel(ctx echo.Context) error {
	return api.decide(ctx, api.svc.Cancel, "cancelling proposition")
}

func (api *doctorateApi) decide(
	ctx echo.Context,
	do func(doctorate.DecisionCommand) (doctorate.Proposition, error),
	msg string,
) error {
	cmd, err := bindDecision(ctx)
	if err != nil {
		return err
	}
	prop, err := do(doctorate.DecisionCommand(cmd))
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *doctorateApi) ownerOrManagerMiddleware() echo.MiddlewareFunc {
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
