package domain

// Форматы дат
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Значения по умолчанию и бизнес-ограничения
const (
	DefaultHoldTTLMinutes       = 15
	MinHoldTTLMinutes           = 5
	MaxHoldTTLMinutes           = 60
	DefaultPaymentWindowMinutes = 15
	DefaultMaxNights            = 90

	MaxCancellationNotesLength = 500
	MaxIdempotencyKeyLength    = 128
	MaxPercentValue            = 100
)

// Провайдеры оплаты
const (
	ProviderManual = "manual"
)

// Role роль пользователя, выполняющего операцию
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
	RoleAdmin    Role = "ADMIN"
)

// Valid проверяет, что роль известна
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Actor пользователь, от имени которого выполняется операция
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin true для администратора
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
