package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/export"
	"github.com/escolarhq/escolar/core/institution"
)

const queryDateFormat = "2006-01-02"

func registerInstitutionAPI(g *echo.Group, svc *institution.Service, expSvc *export.Service) {
	api := institutionApi{svc: svc, expSvc: expSvc}

	ig := g.Group("/institutions")
	ig.GET("", api.queryAll)
	ig.POST("", api.create)
	// static routes before the :id param route
	ig.GET("/export", api.export)
	ig.GET("/export/summary", api.exportSummary)
	ig.GET("/:id", api.get)
	ig.PUT("/:id", api.update)
	ig.DELETE("/:id", api.delete)
}

type institutionApi struct {
	svc    *institution.Service
	expSvc *export.Service
}

func (api *institutionApi) queryAll(ctx echo.Context) error {
	filter, err := queryFilterFromRequest(ctx)
	if err != nil {
		return err
	}
	insts, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, insts)
}

func (api *institutionApi) create(ctx echo.Context) error {
	var ni institution.NewInstitution
	if err := ctx.Bind(&ni); err != nil {
		return err
	}
	if err := core.Validate.Struct(ni); err != nil {
		return err
	}
	inst, err := api.svc.Create(ctx.Request().Context(), ni)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inst)
}

func (api *institutionApi) get(ctx echo.Context) error {
	inst, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *institutionApi) update(ctx echo.Context) error {
	var ui institution.UpdateInstitution
	if err := ctx.Bind(&ui); err != nil {
		return err
	}
	if err := core.Validate.Struct(ui); err != nil {
		return err
	}
	inst, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), ui)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *institutionApi) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// export streams the rendered artifact as a file download.
func (api *institutionApi) export(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	opts, err := exportOptionsFromRequest(ctx)
	if err != nil {
		return err
	}
	filter, err := queryFilterFromRequest(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Filter(reqCtx, filter)
	if err != nil {
		return err
	}

	var stats map[string]institution.Statistics
	if opts.IncludeStats {
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		if stats, err = api.svc.Statistics(reqCtx, ids...); err != nil {
			return err
		}
	}

	artifact, err := api.expSvc.Export(reqCtx, records, opts, stats, documentConfigFromRequest(ctx, api.expSvc))
	if err != nil {
		return err
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, artifact.Filename))
	return ctx.Blob(http.StatusOK, artifact.ContentType, artifact.Content)
}

func (api *institutionApi) exportSummary(ctx echo.Context) error {
	opts, err := exportOptionsFromRequest(ctx)
	if err != nil {
		return err
	}
	filter, err := queryFilterFromRequest(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.expSvc.Summary(records, opts))
}

func exportOptionsFromRequest(ctx echo.Context) (export.Options, error) {
	opts := export.Options{
		Format:       export.Format(core.CleanString(ctx.QueryParam("format"), true)),
		IncludeStats: ctx.QueryParam("include_stats") == "true",
	}
	from, err := parseQueryDate(ctx, "from")
	if err != nil {
		return opts, err
	}
	to, err := parseQueryDate(ctx, "to")
	if err != nil {
		return opts, err
	}
	if !from.IsZero() || !to.IsZero() {
		opts.DateRange = &export.DateRange{From: from, To: to}
	}
	return opts, nil
}

func queryFilterFromRequest(ctx echo.Context) (institution.QueryFilter, error) {
	filter := institution.QueryFilter{Search: ctx.QueryParam("search")}
	from, err := parseQueryDate(ctx, "from")
	if err != nil {
		return filter, err
	}
	to, err := parseQueryDate(ctx, "to")
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom, filter.CreatedTo = from, to
	return filter, nil
}

func documentConfigFromRequest(ctx echo.Context, expSvc *export.Service) export.DocumentConfig {
	cfg := expSvc.DocumentConfig()
	if orient := ctx.QueryParam("orientation"); orient == "portrait" || orient == "landscape" {
		cfg.Orientation = orient
	}
	if format := ctx.QueryParam("page_format"); format == "a4" || format == "letter" {
		cfg.PageFormat = format
	}
	return cfg
}

func parseQueryDate(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(queryDateFormat, val)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("fecha no válida en %q: se espera AAAA-MM-DD", name))
	}
	return t, nil
}
