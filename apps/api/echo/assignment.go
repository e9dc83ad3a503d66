package echoapi

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/assignment"
)

type assignmentApi struct {
	svc *assignment.Service

	mu       sync.Mutex
	sessions map[string]*assignment.StagingSession // adminID -> session
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service) {
	api := &assignmentApi{
		svc:      svc,
		sessions: make(map[string]*assignment.StagingSession),
	}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.DELETE("/:id", api.destroy, adminMiddleware())

	// two-phase bulk assignment: stage into the admin's session, then confirm
	sg := ag.Group("/staging", adminMiddleware())
	sg.GET("", api.retrieveSession)
	sg.PUT("", api.stage)
	sg.DELETE("", api.clearSession)
	sg.DELETE("/:courseID", api.unstage)
	sg.POST("/confirm", api.confirm)
}

// sessionFor returns the calling admin's staging session, creating one for
// the current term on first use.
func (api *assignmentApi) sessionFor(adminID string) *assignment.StagingSession {
	api.mu.Lock()
	defer api.mu.Unlock()

	session, ok := api.sessions[adminID]
	if !ok {
		session = api.svc.NewSession(adminID)
		api.sessions[adminID] = session
	}
	return session
}

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := new(assignment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assignment.CourseAssignment{})
	}
	filter.Clean()

	assignments, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.CourseAssignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) retrieveSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	session := api.sessionFor(claims.Subject)
	return ctx.JSON(http.StatusOK, SessionResponse{
		AcademicYear: session.AcademicYear,
		Semester:     string(session.Semester),
		Pairs:        session.Pairs(),
	})
}

func (api *assignmentApi) stage(ctx echo.Context) error {
	var data StageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StageRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	session := api.sessionFor(claims.Subject)

	if err := api.svc.Stage(ctx.Request().Context(), session, data.CourseID, data.LecturerID); err != nil {
		return errors.Wrap(err, "staging assignment")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{
		AcademicYear: session.AcademicYear,
		Semester:     string(session.Semester),
		Pairs:        session.Pairs(),
	})
}

func (api *assignmentApi) unstage(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	session := api.sessionFor(claims.Subject)
	session.Unstage(ctx.Param("courseID"))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) clearSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.sessionFor(claims.Subject).Clear()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) confirm(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	session := api.sessionFor(claims.Subject)

	batch, err := api.svc.Confirm(ctx.Request().Context(), session)
	if err != nil {
		return errors.Wrap(err, "confirming staged assignments")
	}
	return ctx.JSON(http.StatusOK, batch)
}

type (
	StageRequest struct {
		CourseID   string `json:"course_id" validate:"required"`
		LecturerID string `json:"lecturer_id" validate:"required"`
	}

	SessionResponse struct {
		AcademicYear string            `json:"academic_year"`
		Semester     string            `json:"semester"`
		Pairs        []assignment.Pair `json:"pairs"`
	}
)

func (sr *StageRequest) Validate() error {
	sr.CourseID = core.CleanString(sr.CourseID)
	sr.LecturerID = core.CleanString(sr.LecturerID)
	return core.Validate.Struct(sr)
}
