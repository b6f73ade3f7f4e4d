package cancellation

import "errors"

var (
	// ErrCancellationNotFound возвращается, когда запись об отмене не найдена
	ErrCancellationNotFound = errors.New("cancellation.repository: cancellation not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("cancellation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("cancellation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("cancellation.repository: failed to scan row")
)
