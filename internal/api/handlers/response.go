package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Коды ошибок в теле ответа
const (
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInvalidRange             = "INVALID_RANGE"
	CodeMinimumStayNotMet        = "MINIMUM_STAY_NOT_MET"
	CodeBlockedDates             = "BLOCKED_DATES"
	CodeDatesUnavailable         = "DATES_UNAVAILABLE"
	CodeDatesContended           = "DATES_CONTENDED"
	CodeHoldExpired              = "HOLD_EXPIRED"
	CodeInvalidState             = "INVALID_STATE"
	CodeCancellationWindowClosed = "CANCELLATION_WINDOW_CLOSED"
	CodePaymentWindowElapsed     = "PAYMENT_WINDOW_ELAPSED"
	CodeProviderError            = "PROVIDER_ERROR"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeForbidden                = "FORBIDDEN"
	CodeNotFound                 = "NOT_FOUND"
	CodeInternal                 = "INTERNAL_ERROR"
)

const msgInternalError = "внутренняя ошибка сервера"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON пишет ответ в JSON
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет ответ с ошибкой
func RespondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	RespondJSON(w, status, ErrorResponse{Code: code, Message: message, Details: details})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, CodeInvalidInput, message, nil)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, CodeForbidden, message, nil)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, CodeNotFound, message, nil)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, CodeInternal, msgInternalError, nil)
}

// RespondConflict ответ 409 с кодом и подробностями из доменной ошибки
func RespondConflict(w http.ResponseWriter, message string, err error) {
	RespondError(w, http.StatusConflict, CodeOf(err), message, DetailsOf(err))
}

// RespondBadGateway ответ 502 при ошибке платежного провайдера
func RespondBadGateway(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadGateway, CodeProviderError, message, nil)
}

// RespondUnprocessable ответ 400 для доменных ошибок валидации, сохраняет точный код
func RespondUnprocessable(w http.ResponseWriter, message string, err error) {
	RespondError(w, http.StatusBadRequest, CodeOf(err), message, DetailsOf(err))
}

// CodeOf код ответа по доменной ошибке
func CodeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, domain.ErrMinimumStayNotMet):
		return CodeMinimumStayNotMet
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, domain.ErrBlockedDates):
		return CodeBlockedDates
	case errors.Is(err, domain.ErrDatesUnavailable):
		return CodeDatesUnavailable
	case errors.Is(err, domain.ErrDatesContended):
		return CodeDatesContended
	case errors.Is(err, domain.ErrHoldExpired):
		return CodeHoldExpired
	case errors.Is(err, domain.ErrCancellationWindowClosed):
		return CodeCancellationWindowClosed
	case errors.Is(err, domain.ErrPaymentWindowElapsed):
		return CodePaymentWindowElapsed
	case errors.Is(err, domain.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, domain.ErrProvider):
		return CodeProviderError
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	}
	return CodeInternal
}

// DetailsOf подробности конфликта или недопустимого состояния
func DetailsOf(err error) map[string]interface{} {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		details := map[string]interface{}{"propertyId": conflict.PropertyID}
		if len(conflict.Nights) > 0 {
			nights := make([]string, len(conflict.Nights))
			for i, n := range conflict.Nights {
				nights[i] = n.Format(domain.DateFormat)
			}
			details["nights"] = nights
		}
		if conflict.ConflictingID != nil {
			details["conflictingId"] = *conflict.ConflictingID
		}
		return details
	}

	var state *domain.StateError
	if errors.As(err, &state) {
		return map[string]interface{}{
			"entity":    state.Entity,
			"id":        state.ID,
			"status":    state.Status,
			"operation": state.Operation,
		}
	}
	return nil
}

// DecodeJSON читает тело запроса. Неизвестные поля считаются ошибкой
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// DecodeOptionalJSON как DecodeJSON, но пустое тело допустимо
func DecodeOptionalJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := DecodeJSON(r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate проверяет struct-теги validate
func Validate(v interface{}) error {
	return validate.Struct(v)
}

// PathUUID разбирает UUID из переменной пути
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

// IdempotencyKey ключ из заголовка Idempotency-Key, если передан
func IdempotencyKey(r *http.Request) *string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return nil
	}
	return &key
}
