package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/lockers"
	"smartlocker-web/internal/models"
	"smartlocker-web/internal/security"
)

const adminHome = "/admin/lockers"

type adminList struct {
	Lockers  []models.Locker
	Stats    *models.LockerStats
	Statuses []models.Status
	Error    string
}

type confirmDelete struct {
	Locker models.Locker
}

type AdminHandler struct {
	api    *apiclient.Client
	views  *Renderer
	busy   *Busy
	logger *zap.Logger
}

func NewAdminHandler(api *apiclient.Client, views *Renderer, busy *Busy, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{api: api, views: views, busy: busy, logger: logger}
}

func (h *AdminHandler) inventory(g apiclient.Authorizer) *lockers.Inventory {
	return lockers.NewInventory(h.api, g, h.logger)
}

// List shows every locker with its counts. When the stats endpoint fails the
// counts are tallied from the list.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	inv := h.inventory(g)
	data := adminList{Statuses: models.Statuses}

	list, err := inv.List(r.Context())
	if err != nil {
		data.Error = err.Error()
	}
	data.Lockers = list

	stats, err := inv.Stats(r.Context())
	if err != nil && list != nil {
		h.logger.Debug("locker stats unavailable", zap.Error(err))
		counted := models.CountStatuses(list)
		stats = &counted
	}
	data.Stats = stats

	h.views.Render(w, r, http.StatusOK, "admin_lockers", View{Title: "Locker management", Data: data})
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	release, ok := h.busy.Acquire(g.CurrentUser().ID, "admin_create")
	if !ok {
		h.views.Flash(w, r, security.FlashError, inProgressMessage)
		redirect(w, r, adminHome)
		return
	}
	defer release()

	in := models.NewLocker{
		LockerNumber: r.PostFormValue("locker_number"),
		Location:     r.PostFormValue("location"),
		PricePerHour: r.PostFormValue("price_per_hour"),
		Status:       models.Status(r.PostFormValue("status")),
	}
	added, err := h.inventory(g).Create(r.Context(), in)
	if err != nil {
		h.views.Flash(w, r, security.FlashError, "Failed to add locker: "+err.Error())
	} else {
		h.views.Flash(w, r, security.FlashSuccess, fmt.Sprintf("Locker %s added successfully!", added.LockerNumber))
	}
	redirect(w, r, adminHome)
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	id, ok := lockerID(w, r)
	if !ok {
		return
	}
	release, ok := h.busy.Acquire(g.CurrentUser().ID, "admin_update_"+strconv.Itoa(id))
	if !ok {
		h.views.Flash(w, r, security.FlashError, inProgressMessage)
		redirect(w, r, adminHome)
		return
	}
	defer release()

	status := models.Status(r.PostFormValue("status"))
	updated, err := h.inventory(g).UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.views.Flash(w, r, security.FlashError, "Failed to update locker: "+err.Error())
	} else {
		h.views.Flash(w, r, security.FlashSuccess, fmt.Sprintf("Locker %s status updated to %s", updated.LockerNumber, status))
	}
	redirect(w, r, adminHome)
}

// Delete removes a locker only when the form carries confirm=yes; otherwise
// it renders the confirmation page.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	id, ok := lockerID(w, r)
	if !ok {
		return
	}
	inv := h.inventory(g)

	list, err := inv.List(r.Context())
	if err != nil {
		h.views.Flash(w, r, security.FlashError, "Failed to delete locker: "+err.Error())
		redirect(w, r, adminHome)
		return
	}
	target, found := lockers.Find(list, id)
	if !found {
		h.views.Flash(w, r, security.FlashError, "Failed to delete locker: locker not found")
		redirect(w, r, adminHome)
		return
	}

	if r.PostFormValue("confirm") != "yes" {
		h.views.Render(w, r, http.StatusOK, "admin_confirm_delete", View{Title: "Delete locker", Data: confirmDelete{Locker: target}})
		return
	}

	release, ok := h.busy.Acquire(g.CurrentUser().ID, "admin_delete_"+strconv.Itoa(id))
	if !ok {
		h.views.Flash(w, r, security.FlashError, inProgressMessage)
		redirect(w, r, adminHome)
		return
	}
	defer release()

	if err := inv.Remove(r.Context(), id); err != nil {
		h.views.Flash(w, r, security.FlashError, "Failed to delete locker: "+err.Error())
	} else {
		h.views.Flash(w, r, security.FlashSuccess, fmt.Sprintf("Locker %s deleted successfully!", target.LockerNumber))
	}
	redirect(w, r, adminHome)
}

func lockerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "Invalid locker id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
