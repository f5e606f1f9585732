package handler

import (
	"net/http"

	"kpr-backend/internal/middleware"
	"kpr-backend/internal/model"
	"kpr-backend/internal/service"
	"kpr-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LevelHandler struct {
	levelService service.LevelService
}

func NewLevelHandler(levelService service.LevelService) *LevelHandler {
	return &LevelHandler{levelService: levelService}
}

func (h *LevelHandler) RegisterRoutes(router *gin.RouterGroup) {
	levels := router.Group("/api/approval-levels")
	{
		levels.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleVerifier), h.List)
		levels.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleVerifier), h.Get)
		levels.POST("", middleware.RequireRole(model.RoleAdmin), h.Create)
	}
}

// List returns active approval levels in resolution order
func (h *LevelHandler) List(c *gin.Context) {
	levels, err := h.levelService.ListLevels(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, levels))
}

// Get returns one approval level by id
func (h *LevelHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	level, err := h.levelService.GetLevel(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, level))
}

// Create adds a new approval level to the hierarchy
func (h *LevelHandler) Create(c *gin.Context) {
	var input service.CreateLevelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	level, err := h.levelService.CreateLevel(c.Request.Context(), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, level))
}
