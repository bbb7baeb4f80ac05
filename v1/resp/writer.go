package resp

import (
	"bufio"
	"strconv"
)

// AppendCommand дописывает в dst команду в виде массива bulk-строк.
// Числовые аргументы должны быть уже отформатированы вызывающим кодом.
func AppendCommand(dst []byte, name string, args ...string) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)+1), 10)
	dst = append(dst, '\r', '\n')
	dst = appendBulk(dst, name)
	for _, arg := range args {
		dst = appendBulk(dst, arg)
	}
	return dst
}

func appendBulk(dst []byte, s string) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

// WriteCommand пишет команду в w и сбрасывает буфер.
func WriteCommand(w *bufio.Writer, name string, args ...string) error {
	if _, err := w.Write(AppendCommand(nil, name, args...)); err != nil {
		return err
	}
	return w.Flush()
}
