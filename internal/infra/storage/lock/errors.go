package lock

import "errors"

var (
	// ErrNotInTransaction блокировка уровня транзакции запрошена вне транзакции
	ErrNotInTransaction = errors.New("lock.repository: advisory lock requires a transaction")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("lock.repository: failed to execute query")
)
