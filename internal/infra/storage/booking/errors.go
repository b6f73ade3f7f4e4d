package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrOverlap диапазон пересекается с другим активным бронированием объекта (EXCLUDE ограничение)
	ErrOverlap = errors.New("booking.repository: overlapping booking exists")

	// ErrHoldAlreadyConverted по холду уже создано бронирование
	ErrHoldAlreadyConverted = errors.New("booking.repository: hold already converted")

	// ErrStatusConflict статус бронирования изменился между чтением и обновлением
	ErrStatusConflict = errors.New("booking.repository: booking status changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
