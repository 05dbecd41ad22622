package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourcrm/internal/database"
	"tourcrm/internal/domain"
	"tourcrm/internal/models"
	"tourcrm/internal/service"

	"github.com/rs/zerolog"
)

// Handlers тонкий слой запрос/ответ над сервисами. Вся логика живет
// в service; здесь только разбор входа и маппинг ошибок.
type Handlers struct {
	bookings  *service.BookingService
	dashboard *service.DashboardService
	chat      *service.ChatService
	users     *service.UserService
	reports   domain.ReportWorker
	logger    *zerolog.Logger
}

func NewHandlers(
	bookings *service.BookingService,
	dashboard *service.DashboardService,
	chat *service.ChatService,
	users *service.UserService,
	reports domain.ReportWorker,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		bookings:  bookings,
		dashboard: dashboard,
		chat:      chat,
		users:     users,
		reports:   reports,
		logger:    logger,
	}
}

// stringValue принимает и JSON-строку, и число: фронтенд шлет price
// то числом, то строкой из input-поля.
type stringValue string

func (v *stringValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = stringValue(s)
		return nil
	}
	*v = stringValue(data)
	return nil
}

func (h *Handlers) handleListBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := h.bookings.ListAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list bookings")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *Handlers) handleBookingDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	idStr, ok := strings.CutSuffix(rest, "/details")
	if !ok || idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	detail, err := h.bookings.GetDetails(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("booking_id", id).Msg("booking details")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		ID        stringValue  `json:"id"`
		Client    *string      `json:"client"`
		Tour      *string      `json:"tour"`
		Priority  *string      `json:"priority"`
		Price     *stringValue `json:"price"`
		ManagerID *stringValue `json:"manager_id"`
		Date      string       `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := strconv.ParseInt(string(body.ID), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	patch := models.BookingPatch{
		ClientName: body.Client,
		TourType:   body.Tour,
		Priority:   body.Priority,
		TourDate:   body.Date,
	}
	if body.Price != nil {
		price := string(*body.Price)
		patch.Price = &price
	}
	// Отсутствующий manager_id снимает назначение: пустая строка в
	// патче означает "без менеджера"
	if body.ManagerID != nil {
		patch.ManagerID = string(*body.ManagerID)
	}

	if err := h.bookings.UpdateBooking(r.Context(), id, patch); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.Error().Err(err).Int64("booking_id", id).Msg("update booking")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handleAddNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		BookingID int64  `json:"booking_id"`
		Text      string `json:"text"`
		Author    string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	note, err := h.bookings.AddNote(r.Context(), body.BookingID, body.Text, body.Author)
	if err != nil {
		if !errors.Is(err, service.ErrEmptyText) {
			h.logger.Error().Err(err).Int64("booking_id", body.BookingID).Msg("add note")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"date":    note.Date,
		"author":  note.Author,
	})
}

func (h *Handlers) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		ID     stringValue `json:"id"`
		Status string      `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := strconv.ParseInt(string(body.ID), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	if err := h.bookings.SetStatus(r.Context(), id, body.Status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false})
			return
		}
		h.logger.Error().Err(err).Int64("booking_id", id).Msg("update status")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handleQuickCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	booking, err := h.bookings.QuickCreate(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("quick create")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dashboard, err := h.dashboard.ComputeDashboard(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("compute dashboard")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handlers) handleChatSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.chat.Post(r.Context(), body.Sender, body.Text); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyText):
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
		case errors.Is(err, service.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		default:
			h.logger.Error().Err(err).Msg("chat send")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handleManagers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list managers")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"managers": users})
}

func (h *Handlers) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are disabled")
		return
	}

	var body struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// По умолчанию месяц назад и два вперед
	start := time.Now().AddDate(0, -1, 0)
	end := time.Now().AddDate(0, 2, 0)
	if body.StartDate != "" {
		parsed, err := time.Parse(models.TourDateFormat, body.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if body.EndDate != "" {
		parsed, err := time.Parse(models.TourDateFormat, body.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
			return
		}
		end = parsed
	}

	if err := h.reports.EnqueueReport(r.Context(), start, end); err != nil {
		h.logger.Error().Err(err).Msg("enqueue report")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
}
