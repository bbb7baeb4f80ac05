package monitor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kuroko-shirai/embedis/v1/errs"
)

type (
	sample struct {
		User       float64
		Sys        float64
		UsedMemory uint64
	}
)

func parseInfo(info string) (sample, error) {
	var (
		result sample
		found  bool
	)

	for _, line := range strings.Split(info, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "used_cpu_user", "used_cpu_sys":
			val, err := strconv.ParseFloat(value, 64)
			// NaN, Inf, отрицательные и слишком большие значения пропускаем
			if err != nil || math.IsNaN(val) || math.IsInf(val, 0) || val < 0 || val >= 1e9 {
				continue
			}
			if key == "used_cpu_user" {
				result.User = val
			} else {
				result.Sys = val
			}
			found = true
		case "used_memory":
			if val, err := strconv.ParseUint(value, 10, 64); err == nil {
				result.UsedMemory = val
			}
		}
	}

	if !found {
		return sample{}, fmt.Errorf("%w: no valid CPU stats found in INFO", errs.ErrProtocol)
	}
	return result, nil
}
