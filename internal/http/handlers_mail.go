package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/oakmont/portal-api/internal/ports"
)

// MailSender sends a message through the directory on behalf of a session.
type MailSender interface {
	SendMail(ctx context.Context, sessionID string, msg ports.MailMessage) error
}

// MailHandlers provides the notification email endpoint.
type MailHandlers struct {
	Svc MailSender
}

// sendMailRequest is the wire shape for POST /api/notifications/email.
type sendMailRequest struct {
	Recipients  []string `json:"recipients"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	ContentType string   `json:"content_type"`
}

// SendEmail relays a notification email for the current session's user.
// POST /api/notifications/email.
func (h *MailHandlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var req sendMailRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Recipients) == 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("at least one recipient is required"),
		})
		return
	}
	if req.Subject == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("subject is required"),
		})
		return
	}

	err := h.Svc.SendMail(r.Context(), session.ID, ports.MailMessage{
		Recipients:  req.Recipients,
		Subject:     req.Subject,
		Body:        req.Body,
		ContentType: req.ContentType,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
