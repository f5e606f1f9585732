package handler

import (
	"net/http"

	"kpr-backend/internal/middleware"
	"kpr-backend/internal/model"
	"kpr-backend/internal/service"
	"kpr-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RateHandler struct {
	rateService service.RateService
}

func NewRateHandler(rateService service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

func (h *RateHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/rates")
	{
		rates.GET("", h.ListActive) // public: applicants browse the catalog
		rates.GET("/:id", h.Get)
		rates.POST("", middleware.RequireRole(model.RoleAdmin), h.Create)
	}
}

// ListActive returns all currently effective rate plans
func (h *RateHandler) ListActive(c *gin.Context) {
	plans, err := h.rateService.ListActivePlans(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plans))
}

// Get returns one rate plan by id
func (h *RateHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	plan, err := h.rateService.GetRatePlan(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plan))
}

// Create adds a new rate plan to the catalog
func (h *RateHandler) Create(c *gin.Context) {
	var input service.CreateRatePlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	plan, err := h.rateService.CreateRatePlan(c.Request.Context(), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, plan))
}
