package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"meddispense/m/domain"
	"meddispense/m/internal/store"
)

// Handler bundles dependencies for the tracker HTTP API.
type Handler struct {
	store     *store.Store
	secret    string
	apiKey    string
	adminHash string
}

// New constructs a Handler. apiKey guards the device routes, adminHash is
// the bcrypt hash of the operator password for the dashboard routes.
func New(st *store.Store, secret, apiKey, adminHash string) *Handler {
	return &Handler{store: st, secret: secret, apiKey: apiKey, adminHash: adminHash}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)

	// Device routes, authenticated by the shared key header.
	r.Group(func(device chi.Router) {
		device.Use(h.apiKeyMiddleware)
		device.Get("/api/medications", h.listMedications)
		device.Post("/api/medications", h.upsertMedication)
		device.Post("/api/dispense", h.reportDispense)
	})

	// Operator dashboard routes.
	r.Group(func(admin chi.Router) {
		admin.Use(h.authMiddleware)
		admin.Get("/admin/medications", h.listMedications)
		admin.Put("/admin/medications/{box}", h.updateMedication)
		admin.Delete("/admin/medications/{box}", h.deleteMedication)
		admin.Get("/admin/alerts", h.stockAlerts)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken() (string, error) {
	claims := authClaims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey == "" || r.Header.Get("X-API-KEY") != h.apiKey {
			respondError(w, http.StatusForbidden, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.adminHash == "" {
		respondError(w, http.StatusForbidden, "operator access not configured")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(h.adminHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.generateToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Medication handlers

func (h *Handler) listMedications(w http.ResponseWriter, r *http.Request) {
	slots, err := h.store.Slots()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list medications")
		return
	}
	respondJSON(w, http.StatusOK, slots)
}

func validateSlot(slot domain.MedicationSlot) string {
	if slot.BoxID < 1 || slot.BoxID > domain.MaxBoxes {
		return "box_id must be between 1 and " + strconv.Itoa(domain.MaxBoxes)
	}
	if strings.TrimSpace(slot.MedicationName) == "" {
		return "medication_name is required"
	}
	if slot.PillsPerIntake <= 0 {
		return "pills_per_intake must be positive"
	}
	if slot.TotalPills < 0 {
		return "total_pills must not be negative"
	}
	if slot.ScheduleTime1 == "" {
		return "schedule_time_1 is required"
	}
	return ""
}

func (h *Handler) upsertMedication(w http.ResponseWriter, r *http.Request) {
	var slot domain.MedicationSlot
	if err := decodeJSON(r, &slot); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateSlot(slot); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.UpsertSlot(slot); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save medication")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "box_id": slot.BoxID})
}

func (h *Handler) updateMedication(w http.ResponseWriter, r *http.Request) {
	boxID, err := strconv.ParseInt(chi.URLParam(r, "box"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid box id")
		return
	}
	var slot domain.MedicationSlot
	if err := decodeJSON(r, &slot); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	slot.BoxID = boxID
	if msg := validateSlot(slot); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.UpsertSlot(slot); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update medication")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteMedication(w http.ResponseWriter, r *http.Request) {
	boxID, err := strconv.ParseInt(chi.URLParam(r, "box"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid box id")
		return
	}
	if err := h.store.DeleteSlot(boxID); err != nil {
		if errors.Is(err, store.ErrSlotNotFound) {
			respondError(w, http.StatusNotFound, "no medication in this box")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to delete medication")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Dispense reports

type dispenseRequest struct {
	BoxID     int64 `json:"box_id"`
	Dispensed int64 `json:"dispensed"`
}

func (h *Handler) reportDispense(w http.ResponseWriter, r *http.Request) {
	var req dispenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BoxID == 0 || req.Dispensed <= 0 {
		respondError(w, http.StatusBadRequest, "box_id and dispensed are required")
		return
	}
	remaining, err := h.store.DecrementStock(req.BoxID, req.Dispensed)
	if err != nil {
		if errors.Is(err, store.ErrSlotNotFound) {
			respondError(w, http.StatusNotFound, "no medication in this box")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to record dispense")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"box_id":    req.BoxID,
		"remaining": remaining,
		"stock":     stockLevel(remaining),
	})
}

// Stock alerts

type stockAlert struct {
	Type  string `json:"type"`
	BoxID int64  `json:"box_id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func stockLevel(pills int64) string {
	switch {
	case pills == 0:
		return "empty"
	case pills <= store.CriticalStockThreshold:
		return "critical"
	case pills <= store.LowStockThreshold:
		return "low"
	default:
		return "ok"
	}
}

func alertType(level string) string {
	if level == "low" {
		return "warning"
	}
	return level
}

func (h *Handler) stockAlerts(w http.ResponseWriter, r *http.Request) {
	slots, err := h.store.Slots()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch alerts")
		return
	}
	alerts := []stockAlert{}
	for _, slot := range slots {
		level := stockLevel(slot.TotalPills)
		if level == "ok" {
			continue
		}
		alerts = append(alerts, stockAlert{
			Type:  alertType(level),
			BoxID: slot.BoxID,
			Name:  slot.MedicationName,
			Count: slot.TotalPills,
		})
	}
	respondJSON(w, http.StatusOK, alerts)
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
