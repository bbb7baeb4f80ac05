// Package resp реализует кадрирование запросов (массив bulk-строк)
// и разбор ответов протокола Redis (RESP2) в размеченное объединение Reply.
package resp

import (
	"slices"
	"strconv"
	"strings"
)

type (
	// Kind - тег варианта ответа.
	Kind uint8

	// Reply - неизменяемый ответ на одну команду.
	// Для KindBulk и KindArray флаг Nil отличает отсутствующее значение
	// от пустой строки или пустого массива.
	Reply struct {
		Kind  Kind
		Str   string
		Int   int64
		Nil   bool
		Elems []Reply
	}

	// ServerError - ответ сервера вида "-ERR ...".
	ServerError struct {
		Message string
	}
)

const (
	KindStatus Kind = iota + 1
	KindInteger
	KindBulk
	KindArray
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindArray:
		return "array"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

func (it *ServerError) Error() string {
	return it.Message
}

func Status(s string) Reply {
	return Reply{Kind: KindStatus, Str: s}
}

func Integer(n int64) Reply {
	return Reply{Kind: KindInteger, Int: n}
}

func Bulk(s string) Reply {
	return Reply{Kind: KindBulk, Str: s}
}

func NilBulk() Reply {
	return Reply{Kind: KindBulk, Nil: true}
}

func Array(elems ...Reply) Reply {
	return Reply{Kind: KindArray, Elems: elems}
}

func NilArray() Reply {
	return Reply{Kind: KindArray, Nil: true}
}

func Error(msg string) Reply {
	return Reply{Kind: KindError, Str: msg}
}

// IsNil возвращает true для отсутствующей bulk-строки или массива.
func (it Reply) IsNil() bool {
	return it.Nil && (it.Kind == KindBulk || it.Kind == KindArray)
}

// Err возвращает *ServerError для ответа-ошибки и nil для остальных.
func (it Reply) Err() error {
	if it.Kind != KindError {
		return nil
	}
	return &ServerError{Message: it.Str}
}

func (it Reply) String() string {
	switch it.Kind {
	case KindStatus, KindBulk:
		if it.Nil {
			return "(nil)"
		}
		return it.Str
	case KindError:
		return "(error) " + it.Str
	case KindInteger:
		return strconv.FormatInt(it.Int, 10)
	case KindArray:
		if it.Nil {
			return "(nil)"
		}
		parts := make([]string, len(it.Elems))
		for i, elem := range it.Elems {
			parts[i] = elem.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return ""
	}
}

var readOnly = map[string]struct{}{
	"GET":       {},
	"EXISTS":    {},
	"TTL":       {},
	"PTTL":      {},
	"ZSCORE":    {},
	"ZRANGE":    {},
	"ZCARD":     {},
	"SISMEMBER": {},
	"SMEMBERS":  {},
	"SCARD":     {},
	"PING":      {},
}

// IsReadOnly сообщает, можно ли выполнить команду на реплике.
func IsReadOnly(name string) bool {
	_, ok := readOnly[strings.ToUpper(name)]
	return ok
}

// Команды, которые отвечают простой строкой (+OK, +PONG).
var statusReplies = map[string]struct{}{
	"SET":      {},
	"PING":     {},
	"AUTH":     {},
	"SELECT":   {},
	"MSET":     {},
	"RENAME":   {},
	"FLUSHDB":  {},
	"FLUSHALL": {},
}

// AsStatus восстанавливает тип ответа для клиентов, которые не отличают
// простую строку от bulk. Bulk-ответ команды name, отвечающей простой
// строкой, становится Status. SET с опцией GET отвечает bulk и не меняется.
func AsStatus(name string, args []string, reply Reply) Reply {
	if reply.Kind != KindBulk || reply.Nil {
		return reply
	}
	name = strings.ToUpper(name)
	if _, ok := statusReplies[name]; !ok {
		return reply
	}
	// args[0] у SET - само значение, опции идут после него
	if name == "SET" && len(args) > 1 && slices.ContainsFunc(args[1:], func(arg string) bool { return strings.EqualFold(arg, "GET") }) {
		return reply
	}
	return Status(reply.Str)
}
