package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cards/internal/forecast"
	"github.com/vzahanych/weather-cards/internal/render"
)

// PageHandler renders the mounted forecast view. The engine must have
// render.HTMLTemplates() installed.
type PageHandler struct {
	view *forecast.View
}

func NewPageHandler(view *forecast.View) *PageHandler {
	return &PageHandler{view: view}
}

func (h *PageHandler) Index(c *gin.Context) {
	coords, _ := h.view.Coordinates()
	c.HTML(http.StatusOK, "page", render.NewPage(coords, h.view.Model()))
}

// Fragment renders only the cards, for clients that poll for the update.
func (h *PageHandler) Fragment(c *gin.Context) {
	c.HTML(http.StatusOK, "forecast", render.BuildCards(h.view.Model()))
}
