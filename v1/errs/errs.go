// Package errs содержит общую таксономию ошибок клиента.
// Все слои оборачивают эти значения через fmt.Errorf("...: %w"),
// поэтому проверять их следует через errors.Is.
package errs

import "errors"

var (
	// ErrInitialization - адрес недоступен либо проверка PING не прошла.
	ErrInitialization = errors.New("initialization failed")

	// ErrNotInitialized - команда пришла в клиент, который не был
	// успешно инициализирован. Сетевых запросов при этом не выполняется.
	ErrNotInitialized = errors.New("client is not initialized")

	// ErrValidation - входные данные отклонены локально, до сети.
	ErrValidation = errors.New("validation failed")

	// ErrConnection - ошибка ввода-вывода на соединении.
	ErrConnection = errors.New("connection error")

	// ErrTimeout - ответ не получен за отведённое время.
	ErrTimeout = errors.New("timeout")

	// ErrProtocol - ответ не соответствует формату протокола.
	ErrProtocol = errors.New("protocol error")

	ErrPoolExhausted  = errors.New("connection pool exhausted")
	ErrPoolClosed     = errors.New("connection pool closed")
	ErrUnknownBackend = errors.New("unknown backend")
)

// Kind возвращает короткое имя категории ошибки (для метрик и логов).
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, ErrPoolClosed):
		return "pool_closed"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrInitialization):
		return "initialization"
	default:
		return "other"
	}
}
