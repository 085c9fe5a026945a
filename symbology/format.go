package symbology

import (
	"math"
	"strconv"
	"strings"
)

// formatRow returns row with its floating point values rendered through
// format; other values are passed through unchanged.
func formatRow(row map[string]any, format string) map[string]any {
	if strings.TrimSpace(format) == "" {
		return row
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		if f, ok := v.(float64); ok {
			out[k] = FormatFloat(f, format)
			continue
		}
		out[k] = v
	}
	return out
}

// FormatFloat 支持常见的数值格式：
//
//	N2  千分位、两位小数      1,234.50
//	F2  两位小数              1234.50
//	E3  科学计数法            1.235e+03
//	P1  百分比                12.3%
//	0.00 / #.## 按小数点后的位数
//
// 无法识别的格式按最短表示输出。
func FormatFloat(v float64, format string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if strings.ContainsRune("0#,.", rune(format[0])) {
		decimals := 0
		if i := strings.IndexByte(format, '.'); i >= 0 {
			decimals = len(format) - i - 1
		}
		s := strconv.FormatFloat(v, 'f', decimals, 64)
		if strings.Contains(format, ",") {
			s = groupThousands(s)
		}
		return s
	}
	decimals := 2
	if len(format) > 1 {
		d, err := strconv.Atoi(format[1:])
		if err != nil {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		decimals = d
	}
	switch format[0] {
	case 'N', 'n':
		return groupThousands(strconv.FormatFloat(v, 'f', decimals, 64))
	case 'F', 'f':
		return strconv.FormatFloat(v, 'f', decimals, 64)
	case 'E', 'e':
		return strconv.FormatFloat(v, 'e', decimals, 64)
	case 'P', 'p':
		return strconv.FormatFloat(v*100, 'f', decimals, 64) + "%"
	case 'R', 'r', 'G', 'g':
		if math.Trunc(v) == v {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
