package get_availability

import (
	"time"

	"github.com/google/uuid"
)

// NightState состояние ночи для клиента
type NightState string

const (
	NightAvailable NightState = "AVAILABLE"
	NightBlocked   NightState = "BLOCKED"
	NightBooked    NightState = "BOOKED"
	NightHeld      NightState = "HELD"
)

// MaxWindowDays максимальная длина запрашиваемого окна
const MaxWindowDays = 366

// Request модель запроса доступности
type Request struct {
	PropertyID uuid.UUID
	From       time.Time // включительно
	To         time.Time // исключительно
}

// Response модель ответа с состоянием каждой ночи
type Response struct {
	PropertyID uuid.UUID
	From       time.Time
	To         time.Time
	Nights     []Night
}

// Night состояние одной ночи
type Night struct {
	Date      time.Time
	State     NightState
	MinNights int
	Note      *string
}
