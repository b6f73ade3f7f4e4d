package process_refund

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

const (
	msgMissingUser        = "требуется аутентификация"
	msgInvalidRefundID    = "некорректный ID возврата"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidAmount      = "сумма возврата должна быть больше нуля и не больше рассчитанной"
	msgAdminOnly          = "возвраты проводит только администратор"
	msgNotFound           = "возврат не найден"
	msgInvalidState       = "возврат не может быть проведен в текущем состоянии"
	msgProviderFailed     = "платежный провайдер отклонил возврат"
)

type Handler struct {
	service RefundService
	logger  Logger
}

func NewHandler(service RefundService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/refunds/{refundId}/process
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	refundID, err := handlers.PathUUID(r, "refundId")
	if err != nil {
		h.logger.Warn("POST /refunds/{id}/process - Invalid refund ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRefundID)
		return
	}

	var req ProcessRefundRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("POST /refunds/{id}/process - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /refunds/{id}/process - Validation failed: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAmount)
		return
	}

	result, err := h.service.ProcessRefund(r.Context(), &models.RefundRequest{
		Actor:          actor,
		RefundID:       refundID,
		IdempotencyKey: handlers.IdempotencyKey(r),
		AmountOverride: req.AmountOverride,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidAmount):
			h.logger.Warn("POST /refunds/{id}/process - Invalid amount: refund_id=%s, error=%v", refundID, err)
			handlers.RespondBadRequest(w, msgInvalidAmount)

		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("POST /refunds/{id}/process - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, payments.ErrAdminOnly):
			h.logger.Warn("POST /refunds/{id}/process - Admin only: user_id=%d, role=%s", actor.UserID, actor.Role)
			handlers.RespondForbidden(w, msgAdminOnly)

		case errors.Is(err, payments.ErrRefundNotFound):
			h.logger.Warn("POST /refunds/{id}/process - Refund not found: refund_id=%s", refundID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("POST /refunds/{id}/process - Invalid state: %v", err)
			handlers.RespondConflict(w, msgInvalidState, err)

		case errors.Is(err, domain.ErrProvider):
			h.logger.Warn("POST /refunds/{id}/process - Provider failed: refund_id=%s, error=%v", refundID, err)
			handlers.RespondBadGateway(w, msgProviderFailed)

		default:
			h.logger.Error("POST /refunds/{id}/process - Failed to process refund: refund_id=%s, error=%v",
				refundID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /refunds/{id}/process - Refund processed: refund_id=%s, status=%s, reused=%t",
		refundID, result.Refund.Status, result.Reused)
	handlers.RespondJSON(w, http.StatusOK, FromServiceResult(result))
}
