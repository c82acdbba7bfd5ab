package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var errPropNotFoundInCtx = errors.New("proposition object not found in echo.Context")

// decisionRequest is the shared shape of the decision endpoints' payload;
// field-compatible with each context's DecisionCommand.
type decisionRequest struct {
	PropositionID string `json:"proposition_id"`
	Author        string `json:"author"`
	Reason        string `json:"reason"`
}

// bindDecision binds a decision payload, stamping the proposition from the
// route and the author from the authenticated caller.
func bindDecision(ctx echo.Context) (decisionRequest, error) {
	var cmd decisionRequest
	if err := ctx.Bind(&cmd); err != nil {
		return cmd, errors.Wrap(err, "binding to decisionRequest")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return cmd, errors.Wrap(err, "getting context claims")
	}
	cmd.PropositionID = ctx.Param("id")
	cmd.Author = claims.Matricule
	return cmd, nil
}
