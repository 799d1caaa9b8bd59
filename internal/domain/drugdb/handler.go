package drugdb

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medsafe/medsafe/pkg/pagination"
)

// Handler exposes drug database source management over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/drug-database-sources", h.listSources)
	api.POST("/drug-database-sources", h.createSource)
	api.GET("/drug-database-sources/:id", h.getSource)
	api.PUT("/drug-database-sources/:id", h.updateSource)
	api.DELETE("/drug-database-sources/:id", h.deleteSource)
	api.POST("/drug-database-sources/:id/sync", h.sync)
	api.POST("/drug-database-sources/:id/test-connection", h.testConnection)
	api.GET("/drug-database-sources/:id/sync-status", h.syncStatus)
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSyncInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSyncFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}
	return err
}

func (h *Handler) createSource(c echo.Context) error {
	var src Source
	if err := c.Bind(&src); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateSource(c.Request().Context(), &src); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, src)
}

func (h *Handler) getSource(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source id")
	}
	src, err := h.svc.GetSource(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, src)
}

func (h *Handler) updateSource(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source id")
	}
	var src Source
	if err := c.Bind(&src); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	src.ID = id
	if err := h.svc.UpdateSource(c.Request().Context(), &src); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, src)
}

func (h *Handler) deleteSource(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source id")
	}
	if err := h.svc.DeleteSource(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listSources(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListSources(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) sync(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source id")
	}
	result, err := h.svc.SyncFromSource(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) testConnection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source id")
	}
	reachable := h.svc.TestConnection(c.Request().Context(), id)
	return c.JSON(http.StatusOK, map[string]bool{"reachable": reachable})
}

func (h *Handler) syncStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid source id")
	}
	state, err := h.svc.GetSyncStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, state)
}
