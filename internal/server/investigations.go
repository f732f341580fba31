package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"probedeck/internal/agentdir"
	"probedeck/internal/catalog"
	"probedeck/internal/export"
	"probedeck/internal/investigation"
	"probedeck/internal/model"
	"probedeck/internal/search"
)

// InvestigationsHandler exposes the investigation lifecycle over HTTP.
type InvestigationsHandler struct {
	Manager       *investigation.Manager
	Dir           *agentdir.Directory
	Search        *search.Index
	StreamEnabled bool
}

func (h *InvestigationsHandler) Register(api *echo.Group, secret []byte, authMW echo.MiddlewareFunc) {
	agents := api.Group("/agents")
	agents.Use(authMW)
	agents.GET("", h.listAgents)
	agents.POST("/refresh", h.refreshAgents)

	templates := api.Group("/templates")
	templates.Use(authMW)
	templates.GET("", h.listTemplates)

	inv := api.Group("/investigations")
	inv.Use(authMW)
	inv.GET("/active", h.active)
	inv.POST("/template/:id", h.startTemplate)
	inv.POST("/custom", h.startCustom)
	inv.POST("/archive", h.archive)
	inv.DELETE("/active", h.clearActive)
	inv.PUT("/active/step", h.setStep)
	inv.POST("/active/chat", h.mergeChat)
	inv.POST("/active/sessions", h.mergeSessions)
	inv.POST("/active/records", h.appendRecords)
	inv.GET("/history", h.history)
	inv.DELETE("/history/:id", h.deleteHistory)
	inv.GET("/search", h.search)
	inv.GET("/:id/html", h.html)
	inv.GET("/:id/export", h.export)
	inv.GET("/stream", h.stream)
}

// listAgents
//
//	@Summary	Agent directory
//	@Tags		agents
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{array}	model.Agent
//	@Router		/api/agents [get]
func (h *InvestigationsHandler) listAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Dir.Agents())
}

// refreshAgents
//
//	@Summary	Re-probe agent availability
//	@Tags		agents
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{array}	model.Agent
//	@Router		/api/agents/refresh [post]
func (h *InvestigationsHandler) refreshAgents(c echo.Context) error {
	h.Dir.Refresh()
	return c.JSON(http.StatusOK, h.Dir.Agents())
}

// listTemplates
//
//	@Summary	Investigation templates with availability
//	@Tags		templates
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{array}	TemplateView
//	@Router		/api/templates [get]
func (h *InvestigationsHandler) listTemplates(c echo.Context) error {
	dir := h.Dir.Agents()
	var out []TemplateView
	for _, t := range catalog.Templates() {
		matched := catalog.AvailableRequired(t, dir)
		out = append(out, TemplateView{
			ID:             t.ID,
			Name:           t.Name,
			Description:    t.Description,
			RequiredAgents: t.RequiredAgents,
			Urgency:        t.Urgency,
			Available:      len(matched) > 0,
			MatchedAgents:  matched,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// active
//
//	@Summary	Current active investigation
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{object}	model.Investigation
//	@Failure	404	{object}	HTTPError
//	@Router		/api/investigations/active [get]
func (h *InvestigationsHandler) active(c echo.Context) error {
	inv := h.Manager.Store().Active()
	if inv == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active investigation")
	}
	return c.JSON(http.StatusOK, inv)
}

// startTemplate
//
//	@Summary	Start an investigation from a template
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Param		id	path	string	true	"Template ID"
//	@Produce	json
//	@Success	201	{object}	StartResponse
//	@Failure	404	{object}	HTTPError
//	@Failure	409	{object}	HTTPError
//	@Router		/api/investigations/template/{id} [post]
func (h *InvestigationsHandler) startTemplate(c echo.Context) error {
	t, ok := catalog.TemplateByID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown template")
	}
	inv, launched, err := h.Manager.StartFromTemplate(t)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusCreated, StartResponse{
		ID:             inv.ID,
		LaunchedAgent:  launched,
		AgentsAttached: len(inv.Agents),
	})
}

// startCustom
//
//	@Summary	Start a custom investigation
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Accept		json
//	@Param		payload	body	StartCustomRequest	true	"Custom investigation"
//	@Produce	json
//	@Success	201	{object}	StartResponse
//	@Failure	400	{object}	HTTPError
//	@Router		/api/investigations/custom [post]
func (h *InvestigationsHandler) startCustom(c echo.Context) error {
	var req StartCustomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, launched := h.Manager.StartCustom(investigation.CustomConfig{
		Name:        req.Name,
		Description: req.Description,
		Agents:      req.Agents,
	})
	return c.JSON(http.StatusCreated, StartResponse{
		ID:             inv.ID,
		LaunchedAgent:  launched,
		AgentsAttached: len(inv.Agents),
	})
}

// archive
//
//	@Summary	Archive the active investigation into history
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{object}	IDResponse
//	@Failure	404	{object}	HTTPError
//	@Router		/api/investigations/archive [post]
func (h *InvestigationsHandler) archive(c echo.Context) error {
	archived := h.Manager.ArchiveAndClear()
	if archived == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active investigation")
	}
	if h.Search != nil {
		_ = h.Search.IndexInvestigation(archived)
	}
	return c.JSON(http.StatusOK, IDResponse{ID: archived.ID})
}

// clearActive
//
//	@Summary	Discard the active investigation without archiving
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Success	204	{string}	string	"No Content"
//	@Router		/api/investigations/active [delete]
func (h *InvestigationsHandler) clearActive(c echo.Context) error {
	h.Manager.Store().ClearActive()
	return c.NoContent(http.StatusNoContent)
}

// setStep
//
//	@Summary	Move the guided-procedure cursor
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Accept		json
//	@Param		payload	body	StepRequest	true	"Step"
//	@Success	204	{string}	string	"No Content"
//	@Failure	400	{object}	HTTPError
//	@Router		/api/investigations/active/step [put]
func (h *InvestigationsHandler) setStep(c echo.Context) error {
	var req StepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.Manager.Store().SetStep(req.Step)
	return c.NoContent(http.StatusNoContent)
}

// mergeChat
//
//	@Summary	Merge a chat feed batch into the active investigation
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Accept		json
//	@Param		payload	body	[]model.ChatMessage	true	"Messages"
//	@Produce	json
//	@Success	200	{object}	MergedResponse
//	@Failure	400	{object}	HTTPError
//	@Router		/api/investigations/active/chat [post]
func (h *InvestigationsHandler) mergeChat(c echo.Context) error {
	var messages []model.ChatMessage
	if err := c.Bind(&messages); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	merged := h.Manager.Store().MergeChat(messages)
	return c.JSON(http.StatusOK, MergedResponse{Merged: merged})
}

// mergeSessions
//
//	@Summary	Apply a per-agent session feed to the active investigation
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Accept		json
//	@Param		payload	body	map[string]model.AgentSession	true	"Session feed keyed by agent name"
//	@Produce	json
//	@Success	200	{object}	MergedResponse
//	@Failure	400	{object}	HTTPError
//	@Router		/api/investigations/active/sessions [post]
func (h *InvestigationsHandler) mergeSessions(c echo.Context) error {
	var feed map[string]model.AgentSession
	if err := c.Bind(&feed); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	merged := h.Manager.Store().MergeSessions(feed)
	return c.JSON(http.StatusOK, MergedResponse{Merged: merged})
}

// appendRecords
//
//	@Summary	Append findings and recommendations
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Accept		json
//	@Param		payload	body	object	true	"findings and recommendations arrays"
//	@Success	204	{string}	string	"No Content"
//	@Failure	400	{object}	HTTPError
//	@Router		/api/investigations/active/records [post]
func (h *InvestigationsHandler) appendRecords(c echo.Context) error {
	var req struct {
		Findings        []model.Record `json:"findings"`
		Recommendations []model.Record `json:"recommendations"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.Manager.Store().AppendRecords(req.Findings, req.Recommendations)
	return c.NoContent(http.StatusNoContent)
}

// history
//
//	@Summary	Archived investigations
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{array}	model.Investigation
//	@Router		/api/investigations/history [get]
func (h *InvestigationsHandler) history(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Manager.Store().History())
}

// deleteHistory
//
//	@Summary	Remove an archived investigation
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Param		id	path	string	true	"Investigation ID"
//	@Success	204	{string}	string	"No Content"
//	@Router		/api/investigations/history/{id} [delete]
func (h *InvestigationsHandler) deleteHistory(c echo.Context) error {
	id := c.Param("id")
	h.Manager.DeleteFromHistory(id)
	if h.Search != nil {
		_ = h.Search.Remove(id)
	}
	return c.NoContent(http.StatusNoContent)
}

// search
//
//	@Summary	Full-text search over archived investigations
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Param		q	query	string	true	"Query string"
//	@Param		k	query	int		false	"Max hits (default 10)"
//	@Produce	json
//	@Success	200	{array}	search.Hit
//	@Failure	400	{object}	HTTPError
//	@Router		/api/investigations/search [get]
func (h *InvestigationsHandler) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	k := 10
	if val := strings.TrimSpace(c.QueryParam("k")); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			k = n
		}
	}
	hits, err := h.Search.Search(q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return c.JSON(http.StatusOK, hits)
}

// html
//
//	@Summary	Investigation report as HTML
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Param		id	path	string	true	"Investigation ID"
//	@Produce	html
//	@Success	200	{string}	string
//	@Failure	404	{object}	HTTPError
//	@Router		/api/investigations/{id}/html [get]
func (h *InvestigationsHandler) html(c echo.Context) error {
	inv, err := h.lookup(c.Param("id"))
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, export.RenderHTML(inv))
}

// export
//
//	@Summary	Investigation report as PDF
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Param		id	path	string	true	"Investigation ID"
//	@Produce	application/pdf
//	@Success	200	{string}	binary
//	@Failure	404	{object}	HTTPError
//	@Failure	502	{object}	HTTPError
//	@Router		/api/investigations/{id}/export [get]
func (h *InvestigationsHandler) export(c echo.Context) error {
	inv, err := h.lookup(c.Param("id"))
	if err != nil {
		return err
	}
	data, err := h.Manager.Export(c.Request().Context(), inv)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="investigation-`+inv.ID+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// lookup resolves an investigation id against the active slot first, then
// history.
func (h *InvestigationsHandler) lookup(id string) (*model.Investigation, error) {
	if inv := h.Manager.Store().Active(); inv != nil && inv.ID == id {
		return inv, nil
	}
	for _, inv := range h.Manager.Store().History() {
		if inv.ID == id {
			return inv.Clone(), nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusNotFound, "investigation not found")
}

type streamPayload struct {
	GeneratedAt     time.Time `json:"generated_at"`
	IntervalSeconds int       `json:"interval_seconds"`
	Active          bool      `json:"active"`
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"name,omitempty"`
	CurrentStep     int       `json:"current_step,omitempty"`
	ChatMessages    int       `json:"chat_messages"`
	Findings        int       `json:"findings"`
	Recommendations int       `json:"recommendations"`
	HistorySize     int       `json:"history_size"`
}

// stream pushes active-investigation snapshots via Server-Sent Events.
//
//	@Summary	Investigation status stream
//	@Tags		investigations
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Param		interval	query	int	false	"Refresh cadence in seconds (default 5)"
//	@Produce	text/event-stream
//	@Success	200	{string}	string
//	@Failure	503	{object}	HTTPError
//	@Router		/api/investigations/stream [get]
func (h *InvestigationsHandler) stream(c echo.Context) error {
	if !h.StreamEnabled {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "stream disabled")
	}
	ctx := c.Request().Context()
	interval := 5 * time.Second
	if val := strings.TrimSpace(c.QueryParam("interval")); val != "" {
		if sec, err := strconv.Atoi(val); err == nil && sec > 0 {
			interval = time.Duration(sec) * time.Second
		}
	}
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	sendSnapshot := func() error {
		payload := streamPayload{
			GeneratedAt:     time.Now().UTC(),
			IntervalSeconds: int(interval / time.Second),
			HistorySize:     len(h.Manager.Store().History()),
		}
		if inv := h.Manager.Store().Active(); inv != nil {
			payload.Active = true
			payload.ID = inv.ID
			payload.Name = inv.Name
			payload.CurrentStep = inv.CurrentStep
			payload.ChatMessages = len(inv.ChatMessages)
			payload.Findings = len(inv.Findings)
			payload.Recommendations = len(inv.Recommendations)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("event: update\n")); err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := sendSnapshot(); err != nil {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sendSnapshot(); err != nil {
				return nil
			}
		}
	}
}
