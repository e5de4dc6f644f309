package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyroxlab/roxcoach/pkg"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID int    `json:"userId"`
}

type RegisterResponse struct {
	UserID int `json:"userId"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}
	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}

	token, userID, err := h.service.Login(r.Context(), loginReq.Username, loginReq.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Errorf("login [%s]: %s", loginReq.Username, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(LoginResponse{Token: token, UserID: userID})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-HYROX-TOKEN")
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		log.Errorf("logout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var registerReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}
	if registerReq.Username == "" || len(registerReq.Password) < 8 {
		http.Error(w, "error, username empty or password too short", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), registerReq.Username, registerReq.Password)
	if errors.Is(err, ErrUsernameTaken) {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}
	if err != nil {
		log.Errorf("register [%s]: %s", registerReq.Username, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(RegisterResponse{UserID: user.ID})
	if err != nil {
		log.Errorf("register, marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}
