package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/sirupsen/logrus"
)

type Registrations interface {
	Register(ctx context.Context, email, password, name string) (string, error)
	ConfirmRegistration(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*domain.AuthTokens, error)
}

type AuthHandler struct {
	registrations Registrations
	timeout       time.Duration
	log           logrus.FieldLogger
}

func NewAuthHandler(registrations Registrations, timeout time.Duration, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{registrations: registrations, timeout: timeout, log: log}
}

type AuthRequestDTO struct {
	Action           string `json:"action"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	ConfirmationCode string `json:"confirmationCode"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

func (h *AuthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AuthRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Action {
	case "register":
		sub, err := h.registrations.Register(ctx, req.Email, req.Password, req.Name)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error registering user")
			return
		}
		respondJSON(w, http.StatusOK, RegisterResponse{
			Message: "User registered successfully. Please check your email for the confirmation code.",
			UserID:  sub,
		})

	case "confirmRegistration":
		if err := h.registrations.ConfirmRegistration(ctx, req.Email, req.ConfirmationCode); err != nil {
			handleServiceError(ctx, w, h.log, err, "error confirming user")
			return
		}
		respondJSON(w, http.StatusOK, MessageResponse{Message: "User confirmed successfully."})

	case "login":
		tokens, err := h.registrations.Login(ctx, req.Email, req.Password)
		if err != nil {
			handleServiceError(ctx, w, h.log, err, "error logging in")
			return
		}
		respondJSON(w, http.StatusOK, tokens)

	default:
		h.log.WithField("action", req.Action).Warn("invalid auth action")
		respondInvalidAction(w)
	}
}
