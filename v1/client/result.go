package client

type (
	Status uint8

	// Result - результат чтения: значение найдено, ключа нет,
	// либо чтение не удалось (Err заполнен только в последнем случае).
	Result struct {
		Value  string
		Status Status
		Err    error
	}
)

const (
	StatusFound Status = iota + 1
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func found(value string) Result {
	return Result{Value: value, Status: StatusFound}
}

func notFound() Result {
	return Result{Status: StatusNotFound}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

func (it Result) IsFound() bool {
	return it.Status == StatusFound
}

func (it Result) IsNotFound() bool {
	return it.Status == StatusNotFound
}

func (it Result) IsFailed() bool {
	return it.Status == StatusFailed
}
