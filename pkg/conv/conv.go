// Package conv 把 YAML 节点配置、Feast 特征值等动态值（any）转换为具体类型。
package conv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 读取数值。整型、浮点、bool（1/0）以及数字字符串都可以转换，
// 标签归属值就是这样从 Feast 读出来的。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

// ConvertSlice 逐个转换 s 的元素，转换失败的元素丢弃。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// ToStrings 读取节目 ID 列表。YAML 里不加引号的纯数字 ID 会被解析成数字，这里按整数格式还原。
func ToStrings(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		return ConvertSlice(val, func(e any) (string, bool) {
			if s, ok := e.(string); ok {
				return s, true
			}
			if f, ok := ToFloat64(e); ok {
				return strconv.FormatFloat(f, 'f', -1, 64), true
			}
			return "", false
		})
	}
	return nil
}

// Get 取 m[key] 并断言为 T；key 不存在或类型不符时返回 def。
func Get[T any](m map[string]any, key string, def T) T {
	if t, ok := m[key].(T); ok {
		return t
	}
	return def
}

// Int 取整数参数。YAML 解析出 int，JSON 解析出 float64，两者都接受；
// 值存在但不是整数时返回错误，而不是悄悄用默认值。
func Int(m map[string]any, key string, def int) (int, error) {
	raw, ok := m[key]
	if !ok {
		return def, nil
	}
	f, ok := ToFloat64(raw)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s: want an integer, got %v", key, raw)
	}
	return int(f), nil
}
