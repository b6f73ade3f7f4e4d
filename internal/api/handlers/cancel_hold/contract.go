package cancel_hold

import (
	"context"

	cancelHold "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_hold"
)

type CancelHoldUseCase interface {
	Execute(ctx context.Context, req *cancelHold.Request) (*cancelHold.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
