package paymentprovider

import "errors"

var (
	// ErrUnknownProvider провайдер с таким именем не зарегистрирован
	ErrUnknownProvider = errors.New("paymentprovider: unknown provider")

	// ErrDeclined провайдер отклонил операцию
	ErrDeclined = errors.New("paymentprovider: operation declined")

	// ErrInvalidRequest некорректные параметры операции
	ErrInvalidRequest = errors.New("paymentprovider: invalid request")
)
