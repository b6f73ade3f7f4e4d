package opsgenerator

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("opsgenerator client: internal error")

	// ErrUnavailable сервис недоступен или перегружен, доставку нужно повторить
	ErrUnavailable = errors.New("opsgenerator client: service unavailable")

	// ErrRejected сервис отклонил событие, повтор не поможет
	ErrRejected = errors.New("opsgenerator client: event rejected")
)
