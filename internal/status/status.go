// Package status merges the two upstream availability signals into the
// single state the UI renders on the Smart Button.
package status

// Status is the reconciled availability state of a title.
type Status string

const (
	// Available: playable right now, locally or via the fulfillment
	// upstream reporting it fully available.
	Available Status = "available"
	// Pending: an acquisition request exists and is being processed.
	Pending Status = "pending"
	// Partial: the fulfillment upstream has part of the title (some
	// seasons of a series, typically).
	Partial Status = "partial"
	// NotAvailable: neither upstream has the title.
	NotAvailable Status = "not_available"
	// Unknown: neither signal could be obtained. Callers decide when to
	// use this; Reconcile never returns it.
	Unknown Status = "unknown"
)

// Fulfillment codes reported by the request-fulfillment upstream.
const (
	FulfillmentPending    = 2
	FulfillmentProcessing = 3
	FulfillmentPartial    = 4
	FulfillmentAvailable  = 5
)

// Reconcile merges local availability with the upstream fulfillment code.
// First match wins: local availability trumps everything, then the
// fulfillment pipeline stages, then not_available. A nil fulfillmentCode
// means the signal was absent and falls through to not_available; the
// orchestrator short-circuits to Unknown when neither signal was
// obtainable at all.
func Reconcile(localAvailable bool, fulfillmentCode *int) Status {
	if localAvailable {
		return Available
	}
	if fulfillmentCode == nil {
		return NotAvailable
	}
	switch *fulfillmentCode {
	case FulfillmentPending, FulfillmentProcessing:
		return Pending
	case FulfillmentPartial:
		return Partial
	case FulfillmentAvailable:
		return Available
	default:
		return NotAvailable
	}
}
