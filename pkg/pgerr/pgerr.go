// Package pgerr классифицирует ошибки PostgreSQL, пришедшие от драйвера lib/pq.
package pgerr

import (
	"errors"

	"github.com/lib/pq"
)

// Коды SQLSTATE, на которые реагирует сервис
const (
	CodeUniqueViolation      pq.ErrorCode = "23505"
	CodeExclusionViolation   pq.ErrorCode = "23P01"
	CodeSerializationFailure pq.ErrorCode = "40001"
	CodeDeadlockDetected     pq.ErrorCode = "40P01"
)

// Code возвращает SQLSTATE ошибки или пустую строку, если это не ошибка PostgreSQL
func Code(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// Constraint возвращает имя нарушенного ограничения
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// IsUniqueViolation проверяет нарушение уникального индекса.
// Если передан constraint, сравнивает и его имя.
func IsUniqueViolation(err error, constraint ...string) bool {
	if Code(err) != CodeUniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	name := Constraint(err)
	for _, c := range constraint {
		if c == name {
			return true
		}
	}
	return false
}

// IsExclusionViolation проверяет нарушение EXCLUDE ограничения
func IsExclusionViolation(err error) bool {
	return Code(err) == CodeExclusionViolation
}

// IsSerializationFailure проверяет ошибки, после которых транзакцию можно повторить целиком
func IsSerializationFailure(err error) bool {
	code := Code(err)
	return code == CodeSerializationFailure || code == CodeDeadlockDetected
}
