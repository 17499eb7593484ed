package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"club-site/internal/auth"
	"club-site/internal/contact"
)

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) getSession(w http.ResponseWriter, r *http.Request) {
	s := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: s.Authenticated(), Email: s.Email()})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeMessage(w, http.StatusBadRequest, auth.LoginFailedMessage)
			return
		}
	} else {
		c.Email = r.FormValue("email")
		c.Password = r.FormValue("password")
	}

	s, err := a.Auth.Login(w, r, c.Email, c.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, auth.LoginFailedMessage)
		return
	}
	if err != nil {
		a.Logger.Printf("http: login: %v", err)
		writeMessage(w, http.StatusInternalServerError, auth.LoginFailedMessage)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, Email: s.Email()})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Auth.Logout(w, r); err != nil {
		a.Logger.Printf("http: logout: %v", err)
		writeMessage(w, http.StatusInternalServerError, InternalErrorMessage)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{})
}

type contactResponse struct {
	Message string `json:"message"`
}

func (a *api) submitContact(w http.ResponseWriter, r *http.Request) {
	var f contact.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}

	if err := a.Contact.Submit(r.Context(), f); err != nil {
		writeMessage(w, http.StatusBadRequest, contact.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{Message: contact.SuccessMessage})
}
