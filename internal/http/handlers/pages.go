package handlers

import (
	"net/http"
	"time"

	"smartlocker-web/internal/models"
)

type dashboard struct {
	User   *models.User
	Expiry string
}

type PageHandler struct {
	views *Renderer
}

func NewPageHandler(views *Renderer) *PageHandler {
	return &PageHandler{views: views}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "home", View{Title: "Home"})
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	data := dashboard{User: g.CurrentUser()}
	if exp, ok := g.Session().AccessExpiry(); ok {
		data.Expiry = exp.Local().Format(time.RFC1123)
	}
	h.views.Render(w, r, http.StatusOK, "dashboard", View{Title: "Dashboard", Data: data})
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
