// Package lockers talks to the locker endpoints of the backend: the user
// directory with its reservation call and polling watch, and the admin
// inventory.
package lockers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/metrics"
	"smartlocker-web/internal/models"
)

type Directory struct {
	api    *apiclient.Client
	auth   apiclient.Authorizer
	logger *zap.Logger
}

func NewDirectory(api *apiclient.Client, auth apiclient.Authorizer, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{api: api, auth: auth, logger: logger}
}

// FetchAll returns the lockers the backend lists for the current user.
func (d *Directory) FetchAll(ctx context.Context) ([]models.Locker, error) {
	var out []models.Locker
	if err := d.api.Do(ctx, "fetch_lockers", http.MethodGet, "/api/lockers/", d.auth.AuthorizationHeader(), nil, &out); err != nil {
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

// Reserve asks the backend to reserve lockerID for hours. Only the backend
// decides whether the locker is still available; the upper bound offered by
// the views is not enforced here.
func (d *Directory) Reserve(ctx context.Context, lockerID, hours int) error {
	req := models.ReservationRequest{LockerID: lockerID, DurationHours: hours}
	if req.DurationHours < 1 {
		err := &apiclient.Error{Kind: apiclient.KindReservation, Message: "Duration must be at least one hour"}
		metrics.RecordReservation(err)
		return err
	}

	path := fmt.Sprintf("/api/lockers/%d/reserve/", req.LockerID)
	err := d.api.Do(ctx, "reserve_locker", http.MethodPost, path, d.auth.AuthorizationHeader(), req, nil)
	metrics.RecordReservation(err)
	if err != nil {
		d.logger.Info("reservation rejected",
			zap.Int("locker_id", lockerID),
			zap.Int("hours", hours),
			zap.Int("status", apiclient.StatusCode(err)),
		)
		return apiclient.Fail(apiclient.KindReservation, err, "Failed to reserve locker")
	}
	d.logger.Info("locker reserved", zap.Int("locker_id", lockerID), zap.Int("hours", hours))
	return nil
}
