package notifier

import "errors"

var (
	// ErrInvalidConfig некорректная конфигурация публикатора
	ErrInvalidConfig = errors.New("notifier: invalid config")

	// ErrInvalidEvent событие не может быть опубликовано
	ErrInvalidEvent = errors.New("notifier: invalid event")

	// ErrPublish ошибка записи в брокер
	ErrPublish = errors.New("notifier: publish failed")

	// ErrClosed публикатор закрыт
	ErrClosed = errors.New("notifier: publisher closed")
)
