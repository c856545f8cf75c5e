package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/babybook/internal/service"
	"github.com/templui/babybook/internal/ui"
	"github.com/templui/babybook/internal/ui/pages"
)

type HomeHandler struct {
	babyService *service.BabyService
}

func NewHomeHandler(babyService *service.BabyService) *HomeHandler {
	return &HomeHandler{
		babyService: babyService,
	}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	babies, err := h.babyService.List()
	if err != nil {
		slog.Error("failed to list babies for home page", "error", err)
		http.Error(w, "Failed to load babies", http.StatusInternalServerError)
		return
	}

	ui.Render(w, r, pages.Home(babies))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}
