package echoapi

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/result"
)

type resultApi struct {
	svc *result.Service
}

func registerResultAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *result.Service) {
	api := resultApi{svc: svc}

	rg := g.Group("/results", jwt)
	rg.POST("", api.submit, lecturerMiddleware())
	rg.GET("", api.query, lecturerMiddleware())
	rg.GET("/export", api.export, adminMiddleware())
	rg.GET("/:id", api.retrieve, lecturerMiddleware())

	sg := g.Group("/students", jwt)
	sg.GET("/:id/transcript", api.transcript)
}

func (api *resultApi) submit(ctx echo.Context) error {
	var data result.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}

	res, err := api.svc.SubmitScores(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting scores")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *resultApi) query(ctx echo.Context) error {
	filter := new(result.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []result.Result{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	results, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	sortResults(results, ordering.Orderings)
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *resultApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == result.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding result by ID")
	}
	return ctx.JSON(http.StatusOK, res)
}

// transcript is visible to the student it belongs to and to admins.
func (api *resultApi) transcript(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	studentID := ctx.Param("id")
	if !claims.IsAdmin && claims.Subject != studentID {
		return errHttpForbidden
	}

	tr, err := api.svc.TranscriptFor(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}
	return ctx.JSON(http.StatusOK, tr)
}

func (api *resultApi) export(ctx echo.Context) error {
	filter := new(result.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return core.NewValidationError(errors.New("invalid filters"))
	}
	filter.Clean()

	rows, err := api.svc.ExportRows(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "exporting results")
	}

	filename := fmt.Sprintf("results-%s", time.Now().Format("20060102-150405"))
	res := ctx.Response()

	switch ctx.QueryParam("format") {
	case "", "csv":
		res.Header().Set(echo.HeaderContentType, "text/csv")
		res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`.csv"`)
		res.WriteHeader(http.StatusOK)
		return result.WriteCSV(res, rows)
	case "xlsx":
		res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`.xlsx"`)
		res.WriteHeader(http.StatusOK)
		return result.WriteSheet(res, rows)
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "must be one of: csv, xlsx"})
	}
}

// sortResults applies query orderings in-memory; ties keep submission order.
func sortResults(results []result.Result, orderings []core.DBOrdering) {
	for i := len(orderings) - 1; i >= 0; i-- {
		ord := orderings[i]
		sort.SliceStable(results, func(a, b int) bool {
			less := resultLess(results[a], results[b], ord.Field)
			if ord.Ascending {
				return less
			}
			return resultLess(results[b], results[a], ord.Field)
		})
	}
}

func resultLess(a, b result.Result, field string) bool {
	switch field {
	case "student_id":
		return a.StudentID < b.StudentID
	case "course_code":
		return a.CourseCode < b.CourseCode
	case "total_score":
		return a.TotalScore < b.TotalScore
	case "grade":
		return a.Grade < b.Grade
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	default:
		return false
	}
}
