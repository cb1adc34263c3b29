package lockers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/models"
)

type recorded struct {
	method string
	path   string
	body   []byte
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

func newInventory(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*Inventory, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, recorded{method: r.Method, path: r.URL.Path, body: body})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewInventory(apiclient.New(srv.URL, 5*time.Second, zap.NewNop()), bearer("admin"), zap.NewNop()), rec
}

func TestCreate_SendsNumericPrice(t *testing.T) {
	inv, calls := newInventory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":12,"locker_number":"B12","location":"Gym","price_per_hour":"1.50","status":"available"}`))
	})

	got, err := inv.Create(context.Background(), models.NewLocker{
		LockerNumber: "B12",
		Location:     "Gym",
		PricePerHour: "1.50",
		Status:       models.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 12 || got.PricePerHour != 1.5 {
		t.Errorf("Create = %+v", got)
	}

	sentCalls := calls.all()
	if len(sentCalls) != 1 {
		t.Fatalf("calls = %d", len(sentCalls))
	}
	c := sentCalls[0]
	if c.method != http.MethodPost || c.path != "/api/admin/lockers/" {
		t.Errorf("request = %s %s", c.method, c.path)
	}
	var sent map[string]any
	if err := json.Unmarshal(c.body, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if price, ok := sent["price_per_hour"].(float64); !ok || price != 1.5 {
		t.Errorf("price_per_hour = %#v, want number 1.5", sent["price_per_hour"])
	}
	if sent["locker_number"] != "B12" || sent["location"] != "Gym" || sent["status"] != "available" {
		t.Errorf("body = %v", sent)
	}
}

func TestCreate_RejectsBadInputWithoutRequest(t *testing.T) {
	inv, calls := newInventory(t, func(w http.ResponseWriter, r *http.Request) {})

	cases := []models.NewLocker{
		{LockerNumber: "B12", Location: "Gym", PricePerHour: "abc"},
		{LockerNumber: "B12", Location: "Gym", PricePerHour: "-1"},
		{LockerNumber: "B12", Location: "Gym", PricePerHour: "1", Status: "broken"},
	}
	for _, in := range cases {
		if _, err := inv.Create(context.Background(), in); !errors.Is(err, apiclient.ErrCreate) {
			t.Errorf("Create(%+v) = %v, want create error", in, err)
		}
	}
	if n := len(calls.all()); n != 0 {
		t.Errorf("sent %d requests for invalid input", n)
	}
}

func TestCreate_ServerFieldErrorSurfaces(t *testing.T) {
	inv, _ := newInventory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"locker_number":["locker with this locker number already exists."]}`))
	})

	_, err := inv.Create(context.Background(), models.NewLocker{LockerNumber: "A101", Location: "Hall", PricePerHour: "2"})
	if !errors.Is(err, apiclient.ErrCreate) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "locker_number: locker with this locker number already exists." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestUpdateStatus_ReturnsServerRecord(t *testing.T) {
	inv, calls := newInventory(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"locker_number":"C3","location":"Lobby","price_per_hour":"4.00","status":"maintenance"}`))
	})

	got, err := inv.UpdateStatus(context.Background(), 3, models.StatusMaintenance)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != models.StatusMaintenance || got.PricePerHour != 4 {
		t.Errorf("UpdateStatus = %+v", got)
	}
	c := calls.all()[0]
	if c.method != http.MethodPut || c.path != "/api/admin/lockers/3/" {
		t.Errorf("request = %s %s", c.method, c.path)
	}
	if string(c.body) != `{"status":"maintenance"}` {
		t.Errorf("body = %s", c.body)
	}
}

func TestUpdateStatus_Failure(t *testing.T) {
	inv, _ := newInventory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"You do not have permission to perform this action."}`))
	})

	_, err := inv.UpdateStatus(context.Background(), 3, models.StatusOccupied)
	if !errors.Is(err, apiclient.ErrUpdate) || apiclient.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "You do not have permission to perform this action." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRemove(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNoContent)
	inv, calls := newInventory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	})

	if err := inv.Remove(context.Background(), 9); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c := calls.all()[0]; c.method != http.MethodDelete || c.path != "/api/admin/lockers/9/" {
		t.Errorf("request = %s %s", c.method, c.path)
	}

	status.Store(http.StatusNotFound)
	err := inv.Remove(context.Background(), 9)
	if !errors.Is(err, apiclient.ErrDelete) || err.Error() != "Failed to delete locker" {
		t.Errorf("err = %v", err)
	}
}

func TestListAndStats(t *testing.T) {
	inv, _ := newInventory(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/lockers/":
			_, _ = w.Write([]byte(`[{"id":1,"locker_number":"A1","location":"L","price_per_hour":"1.00","status":"occupied"}]`))
		case "/api/admin/lockers/stats/":
			_, _ = w.Write([]byte(`{"total_lockers":4,"available_lockers":2,"occupied_lockers":1,"maintenance_lockers":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	list, err := inv.List(context.Background())
	if err != nil || len(list) != 1 || list[0].Status != models.StatusOccupied {
		t.Fatalf("List = %+v, %v", list, err)
	}
	stats, err := inv.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := models.LockerStats{Total: 4, Available: 2, Occupied: 1, Maintenance: 1}
	if *stats != want {
		t.Errorf("Stats = %+v, want %+v", *stats, want)
	}
}

func TestReplaceAndWithout(t *testing.T) {
	list := []models.Locker{
		{ID: 1, LockerNumber: "A1", Status: models.StatusAvailable},
		{ID: 2, LockerNumber: "A2", Status: models.StatusAvailable},
	}

	updated := Replace(list, models.Locker{ID: 2, LockerNumber: "A2", Status: models.StatusMaintenance})
	if updated[1].Status != models.StatusMaintenance || updated[0] != list[0] {
		t.Errorf("Replace = %+v", updated)
	}
	if list[1].Status != models.StatusAvailable {
		t.Error("Replace modified its input")
	}

	if got := Replace(list, models.Locker{ID: 99}); len(got) != 2 || got[0] != list[0] || got[1] != list[1] {
		t.Errorf("Replace with unknown id = %+v", got)
	}

	rest := Without(list, 1)
	if len(rest) != 1 || rest[0].ID != 2 {
		t.Errorf("Without = %+v", rest)
	}
	if len(list) != 2 {
		t.Error("Without modified its input")
	}
	if _, ok := Find(rest, 1); ok {
		t.Error("Find located removed locker")
	}
}
