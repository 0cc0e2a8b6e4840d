package predictionform

import "time"

// Session is the state owned by one browser session.
type Session struct {
	ID          string           `json:"id"`
	Form        FormState        `json:"form"`
	Result      PredictionResult `json:"result"`
	OverlayOpen bool             `json:"overlayOpen"`
	Toast       Toast            `json:"toast"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// NewSession returns a session at its initial state: default form, no predictions,
// nothing open.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Form:      NewFormState(),
		Toast:     Toast{Severity: SeveritySuccess},
		UpdatedAt: now,
	}
}

// FieldView is one form field prepared for rendering.
type FieldView struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Value     string   `json:"value"`
	DigitOnly bool     `json:"digitOnly"`
	Options   []Option `json:"options,omitempty"`
}

// View is the render-ready projection of a session.
type View struct {
	SessionID   string                `json:"sessionId"`
	Fields      []FieldView           `json:"fields"`
	Values      FormState             `json:"values"`
	Result      PredictionResult      `json:"result"`
	Predictions []FormattedPrediction `json:"predictions"`
	Currency    string                `json:"currency"`
	OverlayOpen bool                  `json:"overlayOpen"`
	Toast       *Toast                `json:"toast,omitempty"`
}

// View projects the session at now. Expired toasts are omitted.
func (s Session) View(now time.Time) View {
	fields := make([]FieldView, 0, len(fieldOrder))
	for _, name := range fieldOrder {
		fields = append(fields, FieldView{
			Name:      name,
			Label:     Label(name),
			Value:     s.Form.Get(name),
			DigitOnly: IsDigitOnly(name),
			Options:   OptionsFor(name),
		})
	}
	view := View{
		SessionID:   s.ID,
		Fields:      fields,
		Values:      s.Form,
		Result:      s.Result,
		Predictions: s.Result.Formatted(),
		Currency:    Currency,
		OverlayOpen: s.OverlayOpen,
	}
	if s.Toast.Visible(now) {
		toast := s.Toast
		view.Toast = &toast
	}
	return view
}
