package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64
	Status *string
}

// GetPropertyBookingsRequest запрос на получение бронирований объекта
type GetPropertyBookingsRequest struct {
	PropertyID uuid.UUID
	From       *time.Time // ночи, пересекающиеся с [From, To)
	To         *time.Time
	Status     *string
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetPropertyBookingsRequest) ToDomainFilter() (domain.BookingFilter, error) {
	filter := domain.BookingFilter{PropertyID: &r.PropertyID}
	if r.From != nil {
		from := domain.TruncateDay(*r.From)
		filter.From = &from
	}
	if r.To != nil {
		to := domain.TruncateDay(*r.To)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, domain.ErrInvalidRange
	}
	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  int64      `json:"customerId"`
	PropertyID  uuid.UUID  `json:"propertyId"`
	HoldID      *uuid.UUID `json:"holdId,omitempty"`
	CheckIn     string     `json:"checkIn"`  // "2025-10-15"
	CheckOut    string     `json:"checkOut"` // "2025-10-18"
	Nights      int        `json:"nights"`
	NightlyRate int64      `json:"nightlyRate"`
	CleaningFee int64      `json:"cleaningFee"`
	ServiceFee  int64      `json:"serviceFee"`
	TotalAmount int64      `json:"totalAmount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expiresAt"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledBy        *int64  `json:"cancelledBy,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// QuoteResponse предварительный расчет отмены без побочных эффектов
type QuoteResponse struct {
	BookingID         uuid.UUID `json:"bookingId"`
	Tier              string    `json:"tier"`
	Mode              string    `json:"mode"`
	TotalAmount       int64     `json:"totalAmount"`
	PenaltyAmount     int64     `json:"penaltyAmount"`
	RefundableAmount  int64     `json:"refundableAmount"`
	Currency          string    `json:"currency"`
	ReleasesInventory bool      `json:"releasesInventory"`
	PolicyVersion     int       `json:"policyVersion"`
	HoursToCheckIn    float64   `json:"hoursToCheckIn"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		CustomerID:         b.CustomerID,
		PropertyID:         b.PropertyID,
		HoldID:             b.HoldID,
		CheckIn:            b.CheckIn.Format(domain.DateFormat),
		CheckOut:           b.CheckOut.Format(domain.DateFormat),
		Nights:             b.Nights,
		NightlyRate:        b.NightlyRate,
		CleaningFee:        b.CleaningFee,
		ServiceFee:         b.ServiceFee,
		TotalAmount:        b.TotalAmount,
		Currency:           b.Currency,
		Status:             string(b.Status),
		ExpiresAt:          b.ExpiresAt,
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}
	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}
	return resp
}

// FromDecision конвертирует решение политики в DTO
func FromDecision(bookingID uuid.UUID, d *domain.Decision) *QuoteResponse {
	return &QuoteResponse{
		BookingID:         bookingID,
		Tier:              string(d.Tier),
		Mode:              string(d.Mode),
		TotalAmount:       d.TotalAmount,
		PenaltyAmount:     d.PenaltyAmount,
		RefundableAmount:  d.RefundableAmount,
		Currency:          d.Currency,
		ReleasesInventory: d.ReleasesInventory,
		PolicyVersion:     d.PolicyVersion,
		HoursToCheckIn:    d.HoursToCheckIn,
	}
}
