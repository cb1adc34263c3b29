package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestOutcome(t *testing.T) {
	cases := map[int]string{0: "error", 200: "2xx", 204: "2xx", 409: "4xx", 503: "5xx"}
	for status, want := range cases {
		if got := Outcome(status); got != want {
			t.Errorf("Outcome(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestRecordBackendRequest(t *testing.T) {
	before := getCounterValue(BackendRequestsTotal, "test_op", "4xx")
	RecordBackendRequest("test_op", 409, 15*time.Millisecond)
	if got := getCounterValue(BackendRequestsTotal, "test_op", "4xx"); got != before+1 {
		t.Errorf("backend requests = %v, want %v", got, before+1)
	}
}

func TestRecordPollAndReservation(t *testing.T) {
	okBefore := getCounterValue(PollsTotal, "success")
	failBefore := getCounterValue(ReservationsTotal, "failure")

	RecordPoll(nil)
	RecordReservation(errors.New("locker no longer available"))

	if got := getCounterValue(PollsTotal, "success"); got != okBefore+1 {
		t.Errorf("polls success = %v, want %v", got, okBefore+1)
	}
	if got := getCounterValue(ReservationsTotal, "failure"); got != failBefore+1 {
		t.Errorf("reservations failure = %v, want %v", got, failBefore+1)
	}
}

func TestRecordGuardDecision(t *testing.T) {
	before := getCounterValue(GuardDecisionsTotal, "redirect_login")
	RecordGuardDecision("redirect_login")
	if got := getCounterValue(GuardDecisionsTotal, "redirect_login"); got != before+1 {
		t.Errorf("guard decisions = %v, want %v", got, before+1)
	}
}
