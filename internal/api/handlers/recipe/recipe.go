package recipe

import (
	"errors"
	"net/http"
	"strconv"

	recipeService "recipe-manager/internal/core/recipe"
	"recipe-manager/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 回應訊息
const (
	MsgBanner         = "Recipe Manager API is running!"
	MsgDeleted        = "Recipe deleted successfully"
	MsgFavoriteToggle = "Favorite status updated"
)

// MessageResponse 確認訊息
type MessageResponse struct {
	Message string `json:"message"`
}

// Handler 食譜處理程序
type Handler struct {
	service *recipeService.Service
}

// NewHandler 創建新的食譜處理程序
func NewHandler(service *recipeService.Service) *Handler {
	return &Handler{service: service}
}

// Register 註冊食譜路由
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.HandleBanner)

	recipes := r.Group("/recipes")
	{
		recipes.GET("", h.HandleList)
		recipes.POST("", h.HandleCreate)
		recipes.GET("/search", h.HandleSearch)
		recipes.GET("/:id", h.HandleGet)
		recipes.PUT("/:id", h.HandleReplace)
		recipes.DELETE("/:id", h.HandleDelete)
		recipes.PUT("/:id/favorite", h.HandleToggleFavorite)
	}
}

// HandleBanner 服務說明
func (h *Handler) HandleBanner(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: MsgBanner})
}

// HandleList 列出所有食譜
func (h *Handler) HandleList(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.List(c.Request.Context()))
}

// HandleGet 取得單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	recipe, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleCreate 新增食譜
func (h *Handler) HandleCreate(c *gin.Context) {
	var in recipeService.Input
	if !h.bindInput(c, &in) {
		return
	}

	recipe, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// HandleReplace 整筆取代食譜
func (h *Handler) HandleReplace(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var in recipeService.Input
	if !h.bindInput(c, &in) {
		return
	}

	recipe, err := h.service.Replace(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: MsgDeleted})
}

// HandleSearch 依名稱或食材搜尋
func (h *Handler) HandleSearch(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Search(c.Request.Context(), c.Query("q")))
}

// HandleToggleFavorite 切換收藏
func (h *Handler) HandleToggleFavorite(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.ToggleFavorite(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: MsgFavoriteToggle})
}

// parseID 路徑上的 id 必須是整數，否則視同找不到
func (h *Handler) parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.writeError(c, common.ErrRecipeNotFound)
		return 0, false
	}
	return id, true
}

// bindInput 解析請求體
func (h *Handler) bindInput(c *gin.Context, in *recipeService.Input) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Request.URL.Path),
		)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, common.ErrRequestTooLarge)
			return false
		}
		h.writeError(c, common.ErrInvalidRequest)
		return false
	}
	return true
}

// writeError 依錯誤類型輸出狀態碼與錯誤響應
func (h *Handler) writeError(c *gin.Context, err error) {
	status, resp := common.ToErrorResponse(err)
	if status >= http.StatusInternalServerError {
		common.LogError("Recipe request failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Request.URL.Path),
		)
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

func requestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	id := common.GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}
