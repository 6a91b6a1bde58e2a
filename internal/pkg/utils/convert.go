/**
 * 工具包:数据转换工具
 * @date: 2026.10.16
 * @description: 服务端下发的参数为任意JSON值，这里提供宽松的类型转换
 */
package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 将任意JSON值转换为float64
// 支持数值类型、json.Number和数字字符串，其余以及NaN/Inf返回 ok=false
func ToFloat64(v interface{}) (float64, bool) {
	f, ok := toFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// IsTruthy 判断参数是否为"真"
// nil、false、0、空字符串以及 "false"/"0"/"no"/"off" 视为假
func IsTruthy(v interface{}) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "", "false", "0", "no", "off":
			return false
		}
		return true
	default:
		if f, ok := ToFloat64(v); ok {
			return f != 0
		}
		return true
	}
}

// FormatNumber 以最短形式格式化数值，整数不带小数点
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
