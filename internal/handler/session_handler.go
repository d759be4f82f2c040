package handler

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"

	"github.com/labstack/echo/v4"
)

// SessionResponse describes the principal of the request
type SessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	State         string          `json:"state"`
	IsEmployee    bool            `json:"is_employee"`
	UserID        uint            `json:"user_id,omitempty"`
	Email         string          `json:"email,omitempty"`
	Employee      *model.Employee `json:"employee,omitempty"`
	Customer      *model.Customer `json:"customer,omitempty"`
}

// GetSession returns the resolved session so the storefront can pick its layout
func GetSession(c echo.Context) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SessionResponse{
		Authenticated: sess.Authenticated(),
		State:         sess.State().String(),
		IsEmployee:    sess.IsEmployee(),
		UserID:        sess.UserID,
		Email:         sess.Email,
		Employee:      sess.Employee,
		Customer:      sess.Customer,
	})
}
