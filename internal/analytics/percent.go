package analytics

import (
	"fmt"
	"strconv"
	"strings"
)

// Percent 定点百分比，单位为千分之一（即 0.1%）
// 内部运算全部走整数，只在序列化/解析边界转成 "12.3" 这种一位小数字符串，
// 避免字符串-浮点往返带来的漂移
type Percent int

// PercentOf 计算 part 占 whole 的百分比（四舍五入到一位小数）
// whole <= 0 时返回 0
func PercentOf(part, whole int) Percent {
	if whole <= 0 {
		return 0
	}
	// part/whole*100 以 0.1% 为单位 = part*1000/whole，半数进位
	return Percent((part*1000 + whole/2) / whole)
}

// ParsePercent 解析一位小数的百分比字符串，如 "50.0"、"33.3"
func ParsePercent(s string) (Percent, error) {
	intPart, fracPart, found := strings.Cut(s, ".")
	whole, err := strconv.Atoi(intPart)
	if err != nil {
		return 0, fmt.Errorf("invalid percent %q: %w", s, err)
	}
	tenths := whole * 10
	if found {
		if len(fracPart) != 1 {
			return 0, fmt.Errorf("invalid percent %q: expected one decimal place", s)
		}
		d, err := strconv.Atoi(fracPart)
		if err != nil {
			return 0, fmt.Errorf("invalid percent %q: %w", s, err)
		}
		if tenths < 0 {
			tenths -= d
		} else {
			tenths += d
		}
	}
	return Percent(tenths), nil
}

// String 输出一位小数形式，如 "50.0"
func (p Percent) String() string {
	v := int(p)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%d", sign, v/10, v%10)
}

// MarshalJSON 百分比在线上始终是字符串（与历史前端约定一致）
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON 同时接受 "50.0" 和 50.0 两种形式
func (p *Percent) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := ParsePercent(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Floor 对 n 应用该百分比并向下取整
func (p Percent) Floor(n int) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	return n * int(p) / 1000
}

// scale 返回 n*p 的整数部分和千分余数（余数即小数部分的分子）
func (p Percent) scale(n int) (whole, frac int) {
	v := n * int(p)
	return v / 1000, v % 1000
}
