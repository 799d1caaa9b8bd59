package interaction

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medsafe/medsafe/pkg/pagination"
)

// Handler exposes the interactions service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/interactions", h.listInteractions)
	api.POST("/interactions", h.createInteraction)
	api.GET("/interactions/statistics", h.statistics)
	api.GET("/interactions/:id", h.getInteraction)
	api.PUT("/interactions/:id", h.updateInteraction)
	api.DELETE("/interactions/:id", h.deleteInteraction)

	api.POST("/interaction-checks/prescription/:id", h.checkPrescription)
	api.POST("/interaction-checks/medications", h.checkMedications)
	api.POST("/interaction-checks/patient/:patientId", h.checkPatient)
	api.GET("/interaction-checks/patient/:patientId", h.listPatientChecks)
}

// httpError maps domain errors onto HTTP statuses.
func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateInteraction):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}
	return err
}

func (h *Handler) createInteraction(c echo.Context) error {
	var k KnownInteraction
	if err := c.Bind(&k); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateInteraction(c.Request().Context(), &k); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, k)
}

func (h *Handler) getInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}
	k, err := h.svc.GetInteraction(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, k)
}

func (h *Handler) updateInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}
	var k KnownInteraction
	if err := c.Bind(&k); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	k.ID = id
	if err := h.svc.UpdateInteraction(c.Request().Context(), &k); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, k)
}

func (h *Handler) deleteInteraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}
	if err := h.svc.DeleteInteraction(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listInteractions(c echo.Context) error {
	p := pagination.FromContext(c)
	filters := ListFilters{
		Severity: Severity(c.QueryParam("severity")),
		Type:     InteractionType(c.QueryParam("type")),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if raw := c.QueryParam("drug_a_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid drug_a_id")
		}
		filters.DrugAID = &id
	}
	if raw := c.QueryParam("drug_b_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid drug_b_id")
		}
		filters.DrugBID = &id
	}

	items, total, err := h.svc.ListInteractions(c.Request().Context(), filters)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) statistics(c echo.Context) error {
	stats, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) checkPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	result, err := h.svc.CheckForPrescription(c.Request().Context(), id, checkedBy(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

type medicationCheckRequest struct {
	MedicationIDs []uuid.UUID `json:"medicationIds"`
}

func (h *Handler) checkMedications(c echo.Context) error {
	var req medicationCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := h.svc.CheckForMedications(c.Request().Context(), req.MedicationIDs, checkedBy(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) checkPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req medicationCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	findings, err := h.svc.CheckForPatient(c.Request().Context(), req.MedicationIDs, patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, findings)
}

func (h *Handler) listPatientChecks(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListPatientChecks(c.Request().Context(),
		patientID, CheckStatus(c.QueryParam("status")), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

// checkedBy resolves the acting user from the request, falling back to
// "system" for unauthenticated internal calls.
func checkedBy(c echo.Context) string {
	if u := c.Request().Header.Get("X-User-ID"); u != "" {
		return u
	}
	return "system"
}
