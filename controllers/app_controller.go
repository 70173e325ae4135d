package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"launchdeck/internal/models"
	"launchdeck/services"

	"github.com/gin-gonic/gin"
)

type AppController struct {
	apps *services.AppManager
}

/**
 * Create new App controller instance
 * @param {*services.AppManager} apps - Manager owning the catalog and process lifecycle
 * @returns {*AppController} New App controller instance
 */
func NewAppController(apps *services.AppManager) *AppController {
	return &AppController{apps: apps}
}

/**
 * Register all app API routes
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Catalog: list/add/get/update/remove
 * - Lifecycle: launch/stop/status/check_status/output/logs/rate
 * - Bulk: discover/cleanup
 */
func (a *AppController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/apps", a.ListApps)
	api.POST("/apps", a.AddApp)
	api.GET("/apps/:id", a.GetApp)
	api.PUT("/apps/:id", a.UpdateApp)
	api.DELETE("/apps/:id", a.RemoveApp)
	api.POST("/apps/:id/launch", a.LaunchApp)
	api.POST("/apps/:id/stop", a.StopApp)
	api.GET("/apps/:id/status", a.Status)
	api.GET("/apps/:id/check_status", a.CheckStatus)
	api.GET("/apps/:id/output", a.Output)
	api.GET("/apps/:id/logs", a.Logs)
	api.GET("/apps/:id/process", a.Process)
	api.POST("/apps/:id/rate", a.Rate)
	api.POST("/import", a.Import)
	api.POST("/discover", a.Discover)
	api.POST("/cleanup", a.Cleanup)
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTargetNotFound):
		return http.StatusNotFound, "target.notexist"
	case errors.Is(err, models.ErrInvalidRating):
		return http.StatusBadRequest, "target.invalid_rating"
	case errors.Is(err, models.ErrInvalidTarget):
		return http.StatusBadRequest, "target.invalid"
	case errors.Is(err, models.ErrPathNotFound):
		return http.StatusNotFound, "target.path_not_found"
	case errors.Is(err, models.ErrUnsupportedTarget):
		return http.StatusBadRequest, "target.unsupported"
	case errors.Is(err, models.ErrAlreadyRunning):
		return http.StatusConflict, "target.already_running"
	case errors.Is(err, models.ErrNoPortsAvailable):
		return http.StatusServiceUnavailable, "ports.exhausted"
	case errors.Is(err, models.ErrEnvironmentActivationFailed):
		return http.StatusInternalServerError, "launch.activation_failed"
	case errors.Is(err, models.ErrDependencyInstallFailed):
		return http.StatusInternalServerError, "launch.install_failed"
	}
	return http.StatusInternalServerError, "internal"
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	c.JSON(status, &models.ErrorResponse{Code: code, Error: err.Error()})
}

func targetID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{
			Code:  "target.invalid_id",
			Error: "invalid target id: " + c.Param("id"),
		})
		return 0, false
	}
	return id, true
}

// ListApps lists all catalogued targets
//
//	@Summary		List apps
//	@Tags			Apps
//	@Produce		json
//	@Success		200	{array}		models.Target
//	@Failure		500	{object}	models.ErrorResponse
//	@Router			/api/v1/apps [get]
func (a *AppController) ListApps(c *gin.Context) {
	targets, err := a.apps.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if targets == nil {
		targets = []*models.Target{}
	}
	c.JSON(http.StatusOK, targets)
}

// AddApp registers a target
//
//	@Summary		Register app
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Registration	true	"Target to register"
//	@Success		201		{object}	models.Target
//	@Failure		400		{object}	models.ErrorResponse
//	@Router			/api/v1/apps [post]
func (a *AppController) AddApp(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	t, err := a.apps.Register(c.Request.Context(), reg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GetApp returns one target
//
//	@Summary		Get app
//	@Tags			Apps
//	@Produce		json
//	@Param			id	path		int	true	"Target id"
//	@Success		200	{object}	models.Target
//	@Failure		404	{object}	models.ErrorResponse
//	@Router			/api/v1/apps/{id} [get]
func (a *AppController) GetApp(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	t, err := a.apps.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateApp changes catalog fields of a target
//
//	@Summary		Update app
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Target id"
//	@Param			body	body		models.TargetUpdate	true	"Fields to change"
//	@Success		200		{object}	models.Target
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Router			/api/v1/apps/{id} [put]
func (a *AppController) UpdateApp(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	var upd models.TargetUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	t, err := a.apps.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// RemoveApp stops and deletes a target
//
//	@Summary		Remove app
//	@Tags			Apps
//	@Param			id	path	int	true	"Target id"
//	@Success		204
//	@Failure		404	{object}	models.ErrorResponse
//	@Router			/api/v1/apps/{id} [delete]
func (a *AppController) RemoveApp(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	if err := a.apps.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type launchRequest struct {
	InstallDependencies *bool `json:"install_dependencies"`
}

// LaunchApp starts a target
//
//	@Summary		Launch app
//	@Description	Spawns the target detached; web entry points get a port and a URL
//	@Tags			Lifecycle
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Target id"
//	@Param			body	body		launchRequest	false	"Launch options"
//	@Success		200		{object}	models.LaunchResult
//	@Failure		404		{object}	models.ErrorResponse
//	@Failure		503		{object}	models.ErrorResponse	"No ports left"
//	@Failure		500		{object}	map[string]interface{}	"Launch failed, with partial output"
//	@Router			/api/v1/apps/{id}/launch [post]
func (a *AppController) LaunchApp(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	var req launchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
			return
		}
	}
	install := a.apps.InstallDefault()
	if req.InstallDependencies != nil {
		install = *req.InstallDependencies
	}

	res, err := a.apps.Launch(c.Request.Context(), id, install)
	if err != nil {
		status, code := errorStatus(err)
		body := gin.H{"success": false, "code": code, "error": err.Error()}
		if res != nil {
			body["pid"] = res.Pid
			body["output"] = res.Output
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StopApp stops a target and its process tree
//
//	@Summary		Stop app
//	@Tags			Lifecycle
//	@Produce		json
//	@Param			id	path		int	true	"Target id"
//	@Success		200	{object}	models.StopResult
//	@Failure		404	{object}	models.ErrorResponse
//	@Router			/api/v1/apps/{id}/stop [post]
func (a *AppController) StopApp(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	res, err := a.apps.Stop(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Status returns the stored status
//
//	@Summary		Stored status
//	@Tags			Lifecycle
//	@Produce		json
//	@Param			id	path		int	true	"Target id"
//	@Success		200	{object}	map[string]string
//	@Router			/api/v1/apps/{id}/status [get]
func (a *AppController) Status(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	status, err := a.apps.Status(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CheckStatus reconciles the target against the OS
//
//	@Summary		Reconciled status
//	@Tags			Lifecycle
//	@Produce		json
//	@Param			id	path		int	true	"Target id"
//	@Success		200	{object}	models.StatusResult
//	@Router			/api/v1/apps/{id}/check_status [get]
func (a *AppController) CheckStatus(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	res, err := a.apps.CheckStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *AppController) Output(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	out, err := a.apps.Output(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

func (a *AppController) Logs(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := a.apps.Logs(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.ExecutionLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// Process shows the wrapper process spawned by this server for the target
func (a *AppController) Process(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	if _, err := a.apps.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	detail, found := a.apps.Process(id)
	if !found {
		c.JSON(http.StatusNotFound, &models.ErrorResponse{
			Code:  "process.notexist",
			Error: "no process was launched for this target by the running server",
		})
		return
	}
	c.JSON(http.StatusOK, detail)
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// Rate stores a 1..5 rating
//
//	@Summary		Rate app
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Target id"
//	@Param			body	body		rateRequest	true	"Rating"
//	@Success		200		{object}	map[string]int
//	@Failure		400		{object}	models.ErrorResponse
//	@Router			/api/v1/apps/{id}/rate [post]
func (a *AppController) Rate(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	rating, err := a.apps.Rate(c.Request.Context(), id, req.Rating)
	if errors.Is(err, models.ErrInvalidRating) {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{
			Code:  "target.invalid_rating",
			Error: "Rating must be between 1 and 5",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating": rating})
}

type discoverRequest struct {
	Directory string `json:"directory" binding:"required"`
	DryRun    bool   `json:"dry_run"`
}

// Discover scans a directory and registers the web apps found
//
//	@Summary		Discover apps
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			body	body		discoverRequest	true	"Directory to scan"
//	@Success		200		{object}	models.DiscoverResult
//	@Failure		400		{object}	models.ErrorResponse
//	@Router			/api/v1/discover [post]
func (a *AppController) Discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	res, err := a.apps.Discover(c.Request.Context(), req.Directory, req.DryRun)
	if err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "discover.failed", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

type cleanupRequest struct {
	Minutes int `json:"minutes"`
}

// Cleanup removes targets registered in the last N minutes
//
//	@Summary		Remove recent apps
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			body	body		cleanupRequest	false	"Window in minutes, default 5"
//	@Success		200		{object}	map[string]interface{}
//	@Router			/api/v1/cleanup [post]
func (a *AppController) Cleanup(c *gin.Context) {
	req := cleanupRequest{Minutes: 5}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
			return
		}
	}
	removed, err := a.apps.CleanupRecent(c.Request.Context(), req.Minutes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": len(removed), "targets": removed})
}

type importRequest struct {
	Apps []models.Registration `json:"apps" binding:"required"`
}

// Import registers a batch of targets, skipping paths already catalogued
//
//	@Summary		Import apps
//	@Tags			Apps
//	@Accept			json
//	@Produce		json
//	@Param			body	body		importRequest	true	"Registrations"
//	@Success		200		{object}	models.DiscoverResult
//	@Failure		400		{object}	models.ErrorResponse
//	@Router			/api/v1/import [post]
func (a *AppController) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	registered, skipped, err := a.apps.RegisterAll(c.Request.Context(), req.Apps)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &models.DiscoverResult{Found: req.Apps, Registered: registered, Skipped: skipped})
}
