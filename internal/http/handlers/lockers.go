package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/lockers"
	"smartlocker-web/internal/models"
	"smartlocker-web/internal/security"
)

type lockerList struct {
	Lockers []models.Locker
	Stats   models.LockerStats
	Hours   []int
	Error   string
}

type LockerHandler struct {
	api    *apiclient.Client
	views  *Renderer
	busy   *Busy
	poll   time.Duration
	last   *lastLists
	logger *zap.Logger
}

func NewLockerHandler(api *apiclient.Client, views *Renderer, busy *Busy, poll time.Duration, logger *zap.Logger) *LockerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poll <= 0 {
		poll = lockers.DefaultPollInterval
	}
	return &LockerHandler{
		api:    api,
		views:  views,
		busy:   busy,
		poll:   poll,
		last:   newLastLists(6 * poll),
		logger: logger,
	}
}

// List shows the directory. The page reloads itself every poll interval; a
// failed fetch is shown inline above the last list this browser loaded.
func (h *LockerHandler) List(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	key := h.listKey(w, r, g.CurrentUser())
	now := time.Now()

	data := lockerList{Hours: offeredHours()}
	list, err := lockers.NewDirectory(h.api, g, h.logger).FetchAll(r.Context())
	switch {
	case err == nil:
		if key != "" {
			h.last.put(key, list, now)
		}
	case key != "":
		data.Error = err.Error()
		list, _ = h.last.get(key, now)
	default:
		data.Error = err.Error()
	}
	data.Lockers = list
	data.Stats = models.CountStatuses(list)

	h.views.Render(w, r, http.StatusOK, "lockers", View{
		Title:   "Lockers",
		Refresh: int(h.poll / time.Second),
		Data:    data,
	})
}

// Reserve submits one reservation and sends the browser back to the
// directory, which fetches the authoritative state.
func (h *LockerHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	id, ok := lockerID(w, r)
	if !ok {
		return
	}
	hours, err := strconv.Atoi(r.PostFormValue("duration"))
	if err != nil {
		h.views.Flash(w, r, security.FlashError, "Reservation failed: Duration must be a whole number of hours")
		redirect(w, r, "/lockers")
		return
	}

	release, ok := h.busy.Acquire(g.CurrentUser().ID, "reserve")
	if !ok {
		h.views.Flash(w, r, security.FlashError, inProgressMessage)
		redirect(w, r, "/lockers")
		return
	}
	defer release()

	if err := lockers.NewDirectory(h.api, g, h.logger).Reserve(r.Context(), id, hours); err != nil {
		h.views.Flash(w, r, security.FlashError, "Reservation failed: "+err.Error())
	} else {
		h.views.Flash(w, r, security.FlashSuccess, "Locker reserved successfully!")
	}
	redirect(w, r, "/lockers")
}

// listKey identifies the browser and user whose last directory is kept.
// It is empty when no browser key could be issued.
func (h *LockerHandler) listKey(w http.ResponseWriter, r *http.Request, u *models.User) string {
	client, err := h.views.sessions.ClientKey(w, r)
	if err != nil {
		h.logger.Warn("issue browser key", zap.Error(err))
		return ""
	}
	if u == nil {
		return client
	}
	return client + ":" + strconv.Itoa(u.ID)
}

func offeredHours() []int {
	out := make([]int, models.MaxOfferedHours)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
