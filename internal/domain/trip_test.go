package domain

import "testing"

func TestCanTransition_LifecycleEdges(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to TripStatus }{
		{TripStatusSearching, TripStatusAccepted},
		{TripStatusSearching, TripStatusExpired},
		{TripStatusAccepted, TripStatusArrived},
		{TripStatusAccepted, TripStatusCancelledByPatient},
		{TripStatusAccepted, TripStatusCancelledByDriver},
		{TripStatusAccepted, TripStatusExpired},
		{TripStatusArrived, TripStatusInProgress},
		{TripStatusArrived, TripStatusCancelledByPatient},
		{TripStatusArrived, TripStatusCancelledByDriver},
		{TripStatusInProgress, TripStatusCompleted},
		{TripStatusInProgress, TripStatusCancelledByPatient},
		{TripStatusInProgress, TripStatusCancelledByDriver},
	}
	for _, edge := range allowed {
		if !CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s → %s to be allowed", edge.from, edge.to)
		}
	}

	denied := []struct{ from, to TripStatus }{
		{TripStatusSearching, TripStatusArrived},
		{TripStatusSearching, TripStatusCompleted},
		{TripStatusAccepted, TripStatusInProgress},
		{TripStatusArrived, TripStatusCompleted},
		{TripStatusArrived, TripStatusExpired},
		{TripStatusInProgress, TripStatusExpired},
		{TripStatusArrived, TripStatusAccepted}, // no going back
	}
	for _, edge := range denied {
		if CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s → %s to be rejected", edge.from, edge.to)
		}
	}
}

func TestTerminal_StatesRejectEverything(t *testing.T) {
	t.Parallel()

	all := []TripStatus{
		TripStatusSearching, TripStatusAccepted, TripStatusArrived, TripStatusInProgress,
		TripStatusCompleted, TripStatusCancelledByPatient, TripStatusCancelledByDriver, TripStatusExpired,
	}
	terminals := []TripStatus{
		TripStatusCompleted, TripStatusCancelledByPatient, TripStatusCancelledByDriver, TripStatusExpired,
	}

	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("expected %s to be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("expected no transition out of %s, got %s", from, to)
			}
		}
	}
}

func TestTrip_ActiveAndClone(t *testing.T) {
	t.Parallel()

	var nilTrip *Trip
	if nilTrip.Active() {
		t.Error("nil trip must not be active")
	}
	if nilTrip.Clone() != nil {
		t.Error("cloning a nil trip must return nil")
	}

	trip := &Trip{ID: "trip-1", Status: TripStatusAccepted}
	if !trip.Active() {
		t.Error("accepted trip must be active")
	}

	clone := trip.Clone()
	clone.Status = TripStatusCompleted
	if trip.Status != TripStatusAccepted {
		t.Error("mutating the clone must not touch the original")
	}
	if trip.Clone().Active() != true {
		t.Error("clone must preserve state")
	}
}
