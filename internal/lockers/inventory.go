package lockers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/models"
)

// Inventory is the admin view of every locker. Admin rights are enforced by
// the backend; the route guard only keeps non-admins away from the views.
type Inventory struct {
	api    *apiclient.Client
	auth   apiclient.Authorizer
	logger *zap.Logger
}

func NewInventory(api *apiclient.Client, auth apiclient.Authorizer, logger *zap.Logger) *Inventory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inventory{api: api, auth: auth, logger: logger}
}

type createLockerRequest struct {
	LockerNumber string        `json:"locker_number"`
	Location     string        `json:"location"`
	PricePerHour models.Price  `json:"price_per_hour"`
	Status       models.Status `json:"status"`
}

// List returns all lockers regardless of status.
func (i *Inventory) List(ctx context.Context) ([]models.Locker, error) {
	var out []models.Locker
	if err := i.api.Do(ctx, "admin_list_lockers", http.MethodGet, "/api/admin/lockers/", i.auth.AuthorizationHeader(), nil, &out); err != nil {
		return nil, &apiclient.Error{
			Kind:    apiclient.KindDirectory,
			Status:  apiclient.StatusCode(err),
			Message: "Failed to fetch lockers: " + apiclient.Reason(err),
			Err:     err,
		}
	}
	if out == nil {
		out = []models.Locker{}
	}
	return out, nil
}

// Create parses the price before sending it, so "1.50" goes out as 1.5.
func (i *Inventory) Create(ctx context.Context, in models.NewLocker) (*models.Locker, error) {
	price, err := models.ParsePrice(in.PricePerHour)
	if err != nil {
		return nil, &apiclient.Error{Kind: apiclient.KindCreate, Message: "Price per hour must be a non-negative number", Err: err}
	}
	status := in.Status
	if status == "" {
		status = models.StatusAvailable
	}
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, &apiclient.Error{Kind: apiclient.KindCreate, Message: err.Error(), Err: err}
	}
	req := createLockerRequest{
		LockerNumber: strings.TrimSpace(in.LockerNumber),
		Location:     strings.TrimSpace(in.Location),
		PricePerHour: price,
		Status:       status,
	}

	var out models.Locker
	if err := i.api.Do(ctx, "admin_create_locker", http.MethodPost, "/api/admin/lockers/", i.auth.AuthorizationHeader(), req, &out); err != nil {
		return nil, apiclient.Fail(apiclient.KindCreate, err, "Failed to add locker")
	}
	i.logger.Info("locker created", zap.Int("locker_id", out.ID), zap.String("locker_number", out.LockerNumber))
	return &out, nil
}

// UpdateStatus returns the authoritative record; merge it with Replace.
func (i *Inventory) UpdateStatus(ctx context.Context, lockerID int, status models.Status) (*models.Locker, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, &apiclient.Error{Kind: apiclient.KindUpdate, Message: err.Error(), Err: err}
	}

	var out models.Locker
	path := fmt.Sprintf("/api/admin/lockers/%d/", lockerID)
	body := map[string]models.Status{"status": status}
	if err := i.api.Do(ctx, "admin_update_locker", http.MethodPut, path, i.auth.AuthorizationHeader(), body, &out); err != nil {
		return nil, apiclient.Fail(apiclient.KindUpdate, err, "Failed to update locker status")
	}
	i.logger.Info("locker status updated", zap.Int("locker_id", lockerID), zap.String("status", string(out.Status)))
	return &out, nil
}

// Remove deletes a locker. Callers confirm intent first and drop the id from
// their list only after Remove succeeds.
func (i *Inventory) Remove(ctx context.Context, lockerID int) error {
	path := fmt.Sprintf("/api/admin/lockers/%d/", lockerID)
	if err := i.api.Do(ctx, "admin_delete_locker", http.MethodDelete, path, i.auth.AuthorizationHeader(), nil, nil); err != nil {
		return apiclient.Fail(apiclient.KindDelete, err, "Failed to delete locker")
	}
	i.logger.Info("locker deleted", zap.Int("locker_id", lockerID))
	return nil
}

func (i *Inventory) Stats(ctx context.Context) (*models.LockerStats, error) {
	var out models.LockerStats
	if err := i.api.Do(ctx, "admin_locker_stats", http.MethodGet, "/api/admin/lockers/stats/", i.auth.AuthorizationHeader(), nil, &out); err != nil {
		return nil, &apiclient.Error{
			Kind:    apiclient.KindDirectory,
			Status:  apiclient.StatusCode(err),
			Message: "Failed to fetch locker stats: " + apiclient.Reason(err),
			Err:     err,
		}
	}
	return &out, nil
}

// Replace swaps the record with updated.ID for updated, leaving the others
// untouched. The input slice is not modified.
func Replace(list []models.Locker, updated models.Locker) []models.Locker {
	out := make([]models.Locker, len(list))
	for idx, l := range list {
		if l.ID == updated.ID {
			out[idx] = updated
			continue
		}
		out[idx] = l
	}
	return out
}

// Without drops id from list. The input slice is not modified.
func Without(list []models.Locker, id int) []models.Locker {
	out := make([]models.Locker, 0, len(list))
	for _, l := range list {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// Find returns the locker with id, if listed.
func Find(list []models.Locker, id int) (models.Locker, bool) {
	for _, l := range list {
		if l.ID == id {
			return l, true
		}
	}
	return models.Locker{}, false
}
