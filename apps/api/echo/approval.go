package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/user"
)

type approvalApi struct {
	svc *approval.Service
}

func registerApprovalAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *approval.Service) {
	api := approvalApi{svc: svc}

	ag := g.Group("/approvals", jwt, adminMiddleware(user.RoleAdminDepartment, user.RoleAdminSchool, user.RoleAdminSenate))
	ag.GET("", api.query)
	ag.POST("/:id/act", api.act)

	g.GET("/results/:id/approval", api.retrieveByResult, jwt, lecturerMiddleware())
}

func (api *approvalApi) query(ctx echo.Context) error {
	filter := new(approval.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []approval.ResultApproval{})
	}

	approvals, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying approvals")
	}
	if approvals == nil {
		approvals = []approval.ResultApproval{}
	}
	return ctx.JSON(http.StatusOK, approvals)
}

func (api *approvalApi) act(ctx echo.Context) error {
	var data ActRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	role, err := actorTierRole(claims, data.ActorRole)
	if err != nil {
		return err
	}

	appr, err := api.svc.Act(ctx.Request().Context(), ctx.Param("id"), approval.Action{
		ActorID:   claims.Subject,
		ActorRole: role,
		Decision:  data.Decision,
		Comments:  data.Comments,
	})
	if err != nil {
		return errors.Wrap(err, "acting on approval")
	}
	return ctx.JSON(http.StatusOK, appr)
}

func (api *approvalApi) retrieveByResult(ctx echo.Context) error {
	appr, err := api.svc.GetByResultID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == approval.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding approval by result ID")
	}
	return ctx.JSON(http.StatusOK, appr)
}

// actorTierRole resolves which tier the actor acts for. An explicit role must
// be held by the actor; otherwise the actor must hold exactly one tier role.
func actorTierRole(claims Claims, explicit string) (string, error) {
	tierRoles := []string{user.RoleAdminDepartment, user.RoleAdminSchool, user.RoleAdminSenate}

	held := make([]string, 0, len(tierRoles))
	for _, role := range tierRoles {
		for _, r := range claims.Roles {
			if r == role {
				held = append(held, role)
			}
		}
	}

	if explicit != "" {
		for _, role := range held {
			if role == explicit {
				return role, nil
			}
		}
		return "", errHttpForbidden
	}
	if len(held) == 1 {
		return held[0], nil
	}
	if len(held) == 0 {
		return "", errHttpForbidden
	}
	return "", core.NewValidationError(nil, core.FieldError{
		Field: "actor_role",
		Error: "required when you hold more than one approval role",
	})
}

type ActRequest struct {
	ActorRole string            `json:"actor_role"`
	Decision  approval.Decision `json:"decision"`
	Comments  string            `json:"comments"`
}
