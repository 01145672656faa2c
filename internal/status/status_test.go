package status

import "testing"

func intPtr(v int) *int { return &v }

func TestReconcile(t *testing.T) {
	tests := []struct {
		name            string
		localAvailable  bool
		fulfillmentCode *int
		want            Status
	}{
		{"local available wins", true, nil, Available},
		{"local available over pending", true, intPtr(2), Available},
		{"local available over partial", true, intPtr(4), Available},
		{"local available over arbitrary code", true, intPtr(99), Available},
		{"code 2 pending", false, intPtr(2), Pending},
		{"code 3 pending", false, intPtr(3), Pending},
		{"code 4 partial", false, intPtr(4), Partial},
		{"code 5 available", false, intPtr(5), Available},
		{"nil code not available", false, nil, NotAvailable},
		{"code 0 not available", false, intPtr(0), NotAvailable},
		{"code 1 not available", false, intPtr(1), NotAvailable},
		{"unknown code not available", false, intPtr(42), NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reconcile(tt.localAvailable, tt.fulfillmentCode); got != tt.want {
				t.Errorf("Reconcile(%v, %v) = %q, want %q", tt.localAvailable, tt.fulfillmentCode, got, tt.want)
			}
		})
	}
}

func TestReconcile_NeverReturnsUnknown(t *testing.T) {
	// Unknown is the orchestrator's call, never this table's.
	for code := -1; code <= 10; code++ {
		for _, local := range []bool{true, false} {
			if got := Reconcile(local, intPtr(code)); got == Unknown {
				t.Errorf("Reconcile(%v, %d) = unknown", local, code)
			}
		}
	}
	if got := Reconcile(false, nil); got == Unknown {
		t.Error("Reconcile(false, nil) = unknown")
	}
}
