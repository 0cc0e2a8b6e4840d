package predictionform

import "time"

// Severity classifies a toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// SubmitErrorMessage is the only message shown for a failed submission.
const SubmitErrorMessage = "Error submitting the form."

// Toast is a transient notification. It disappears on close or once ExpiresAt passes.
type Toast struct {
	Open      bool      `json:"open"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Visible reports whether the toast should still be shown at now.
func (t Toast) Visible(now time.Time) bool {
	if !t.Open {
		return false
	}
	return t.ExpiresAt.IsZero() || now.Before(t.ExpiresAt)
}

func newToast(message string, severity Severity, now time.Time, ttl time.Duration) Toast {
	toast := Toast{Open: true, Message: message, Severity: severity}
	if ttl > 0 {
		toast.ExpiresAt = now.Add(ttl)
	}
	return toast
}
