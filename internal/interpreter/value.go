package interpreter

import (
	"math"
	"strconv"
	"strings"
)

// Value is one of: nil, bool, float64, string, *NativeFunction, *Function,
// *Class, *Instance.
type Value interface{}

// IsTruthy reports whether v counts as true. Only nil and false are falsy.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}

// IsEqual is same-value equality: NaN equals itself and 0 differs from -0.
// Objects compare by identity.
func IsEqual(a, b Value) bool {
	x, xok := a.(float64)
	y, yok := b.(float64)
	if xok && yok {
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y && math.Signbit(x) == math.Signbit(y)
	}
	return a == b
}

// Stringify renders a value the way print shows it.
func Stringify(v Value) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(v)
	case string:
		return v
	case *NativeFunction:
		return "<native fn>"
	case *Function:
		return v.String()
	case *Class:
		return v.Name
	case *Instance:
		return v.String()
	}
	return "<unknown>"
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	if abs := math.Abs(n); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	// 1e+21 and 1e-7 rather than Go's 1e-07
	s := strconv.FormatFloat(n, 'g', -1, 64)
	s = strings.Replace(s, "e-0", "e-", 1)
	return strings.Replace(s, "e+0", "e+", 1)
}
