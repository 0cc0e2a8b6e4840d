package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
	apperrors "github.com/yanqian/flat-price/pkg/errors"
)

const formTemplate = "form.html.tmpl"

// FormHandler serves the prediction form, both as an HTML page and as a JSON API.
type FormHandler struct {
	svc     predictionform.Service
	cookies *SessionCookies
	logger  *slog.Logger
	now     func() time.Time
}

// NewFormHandler constructs the form handler.
func NewFormHandler(svc predictionform.Service, cookies *SessionCookies, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		svc:     svc,
		cookies: cookies,
		logger:  logger.With("component", "http.form"),
		now:     time.Now,
	}
}

type formPage struct {
	predictionform.View
	ToastRemainingMs int64
}

type changeFieldRequest struct {
	Value *string `json:"value" binding:"required"`
}

type changeFieldResponse struct {
	Accepted bool `json:"accepted"`
	predictionform.View
}

// Page renders the form for the caller's session.
func (h *FormHandler) Page(c *gin.Context) {
	session, err := h.svc.Open(c.Request.Context(), h.cookies.Resolve(c))
	if err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	h.render(c, session)
}

// SubmitPage applies a posted HTML form and submits it.
func (h *FormHandler) SubmitPage(c *gin.Context) {
	id := h.cookies.Resolve(c)
	ctx := c.Request.Context()
	for _, name := range predictionform.Fields() {
		value, ok := c.GetPostForm(name)
		if !ok {
			continue
		}
		if _, _, err := h.svc.Change(ctx, id, name, value); err != nil {
			abortWithError(c, fromAppError(err, "form_failed"))
			return
		}
	}
	if _, err := h.svc.Submit(ctx, id); err != nil && !apperrors.IsCode(err, apperrors.CodeSubmissionInFlight) {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// CloseOverlayPage hides the success overlay and returns to the form.
func (h *FormHandler) CloseOverlayPage(c *gin.Context) {
	if _, err := h.svc.CloseOverlay(c.Request.Context(), h.cookies.Resolve(c)); err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// CloseToastPage hides the toast and returns to the form.
func (h *FormHandler) CloseToastPage(c *gin.Context) {
	if _, err := h.svc.CloseToast(c.Request.Context(), h.cookies.Resolve(c)); err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// GetForm returns the session view.
func (h *FormHandler) GetForm(c *gin.Context) {
	session, err := h.svc.Open(c.Request.Context(), h.cookies.Resolve(c))
	if err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.JSON(http.StatusOK, session.View(h.now()))
}

// ChangeField applies one field edit. Rejected digit-only input is reported with
// accepted=false and leaves the form unchanged.
func (h *FormHandler) ChangeField(c *gin.Context) {
	var req changeFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	session, accepted, err := h.svc.Change(c.Request.Context(), h.cookies.Resolve(c), c.Param("name"), *req.Value)
	if err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.JSON(http.StatusOK, changeFieldResponse{Accepted: accepted, View: session.View(h.now())})
}

// Submit sends the form to the prediction endpoint. A failed prediction is not an
// HTTP error: the returned view carries the error toast.
func (h *FormHandler) Submit(c *gin.Context) {
	session, err := h.svc.Submit(c.Request.Context(), h.cookies.Resolve(c))
	if err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.JSON(http.StatusOK, session.View(h.now()))
}

// CloseOverlay hides the success overlay.
func (h *FormHandler) CloseOverlay(c *gin.Context) {
	session, err := h.svc.CloseOverlay(c.Request.Context(), h.cookies.Resolve(c))
	if err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.JSON(http.StatusOK, session.View(h.now()))
}

// CloseToast hides the toast.
func (h *FormHandler) CloseToast(c *gin.Context) {
	session, err := h.svc.CloseToast(c.Request.Context(), h.cookies.Resolve(c))
	if err != nil {
		abortWithError(c, fromAppError(err, "form_failed"))
		return
	}
	c.JSON(http.StatusOK, session.View(h.now()))
}

func (h *FormHandler) render(c *gin.Context, session predictionform.Session) {
	now := h.now()
	page := formPage{View: session.View(now)}
	if page.Toast != nil && !page.Toast.ExpiresAt.IsZero() {
		page.ToastRemainingMs = page.Toast.ExpiresAt.Sub(now).Milliseconds()
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, formTemplate, page)
}
