package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/app"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/auth"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/scoring"
)

// ChoiceStore persists submitted choices.
type ChoiceStore interface {
	RecordChoice(ctx context.Context, username string, sub domain.ChoiceSubmission) error
}

// HistoryStore aggregates a user's stored choices into completed games.
type HistoryStore interface {
	History(ctx context.Context, username string) ([]domain.HistoryGame, error)
}

// UserStore persists registered players.
type UserStore interface {
	Create(ctx context.Context, username, email, hashedPassword string) error
	Find(ctx context.Context, usernameOrEmail string) (domain.User, error)
}

// TokenService issues and validates bearer tokens.
type TokenService interface {
	Issue(username string) (string, error)
	Validate(token string) (string, error)
}

// APIHandler serves the REST surface: account routes, the dilemma provider
// endpoint, choice submission, and the history view.
type APIHandler struct {
	dilemmas app.DilemmaRepository
	choices  ChoiceStore
	history  HistoryStore
	users    UserStore
	tokens   TokenService
}

func NewAPIHandler(dilemmas app.DilemmaRepository, choices ChoiceStore, history HistoryStore, users UserStore, tokens TokenService) *APIHandler {
	return &APIHandler{
		dilemmas: dilemmas,
		choices:  choices,
		history:  history,
		users:    users,
		tokens:   tokens,
	}
}

// Register wires the handler's routes onto the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", h.Signup)
	mux.HandleFunc("/login", h.Login)
	mux.HandleFunc("/me", h.Me)
	mux.HandleFunc("/get-dilemma", h.GetDilemma)
	mux.HandleFunc("/api/submit", h.Submit)
	mux.HandleFunc("/history", h.History)
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := h.users.Create(r.Context(), req.Username, req.Email, hashed); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			writeError(w, http.StatusBadRequest, "Username or Email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User created successfully!"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Find(r.Context(), req.Username)
	if err != nil || !auth.VerifyPassword(req.Password, user.HashedPassword) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := h.bearerUsername(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

// GetDilemma serves one question payload for the requested period. A missing
// period is the caller's navigation bug, not a fetch failure.
func (h *APIHandler) GetDilemma(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		writeError(w, http.StatusBadRequest, "period is required")
		return
	}
	dilemma, err := h.dilemmas.GetDilemma(r.Context(), period)
	if err != nil {
		if errors.Is(err, domain.ErrDilemmaNotFound) {
			writeError(w, http.StatusNotFound, "no dilemmas for period")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load dilemma")
		return
	}
	writeJSON(w, http.StatusOK, dilemma)
}

// Submit stores one answered question for history. The ack carries the
// letter-derived score band, not the gameplay score: clients score locally.
func (h *APIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	username, ok := h.bearerUsername(w, r)
	if !ok {
		return
	}
	var sub domain.ChoiceSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sub.Period == "" || sub.Question == "" || sub.SelectedAnswer == "" {
		writeError(w, http.StatusBadRequest, "period, question, and selected_answer are required")
		return
	}

	if err := h.choices.RecordChoice(r.Context(), username, sub); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record choice")
		return
	}

	score := scoring.LetterScore(sub.SelectedAnswer)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Choice submitted",
		"score":       score,
		"explanation": scoring.Explanation(score),
	})
}

func (h *APIHandler) History(w http.ResponseWriter, r *http.Request) {
	username, ok := h.bearerUsername(w, r)
	if !ok {
		return
	}
	games, err := h.history.History(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if games == nil {
		games = []domain.HistoryGame{}
	}
	writeJSON(w, http.StatusOK, domain.History{Username: username, Games: games})
}

// bearerUsername authenticates the request from its Authorization header.
// On failure it writes the 401 itself and returns ok=false.
func (h *APIHandler) bearerUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		writeError(w, http.StatusUnauthorized, "expected Bearer token")
		return "", false
	}
	username, err := h.tokens.Validate(parts[1])
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return "", false
	}
	return username, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
