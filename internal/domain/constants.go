package domain

// Payment session statuses. PENDING is the only non-terminal state.
const (
	PaymentPending   = "PENDING"
	PaymentSuccess   = "SUCCESS"
	PaymentCancelled = "CANCELLED"
	PaymentFailed    = "FAILED"
)

// Terminal reports whether a session status can no longer change.
func Terminal(status string) bool {
	return status == PaymentSuccess || status == PaymentCancelled || status == PaymentFailed
}
