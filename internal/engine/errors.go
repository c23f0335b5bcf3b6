package engine

import "errors"

var (
	// ErrOrderQuery: состояние ордера неизвестно, оставшиеся задачи тика не обрабатываются.
	ErrOrderQuery = errors.New("order query failed")

	errAlreadyRunning = errors.New("engine already running")
)
