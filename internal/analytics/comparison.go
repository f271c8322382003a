package analytics

// Comparison 当前时段与参考时段的对比结果
type Comparison struct {
	Current   int
	Reference int
	// 一位小数的百分比变化；参考值为 0 时为 "0.0"（无基线按"无变化"上报，
	// 这是产品决定，不是错误也不是 NaN）
	PercentChange string
}

// Compare 计算百分比变化，调用方负责先把两个值钳制到非负（见区域合成）
func Compare(current, reference int) Comparison {
	return Comparison{
		Current:       current,
		Reference:     reference,
		PercentChange: PercentChangeOf(current, reference),
	}
}

// PercentChangeOf round((current-reference)/reference*100, 1) 的定点实现
func PercentChangeOf(current, reference int) string {
	if reference == 0 {
		return "0.0"
	}
	// 以 0.1% 为单位，半数远离零进位
	numerator := (current - reference) * 1000
	tenths := roundDiv(numerator, reference)
	return Percent(tenths).String()
}

// roundDiv 整数除法，半数远离零进位
func roundDiv(a, b int) int {
	if b < 0 {
		a, b = -a, -b
	}
	if a >= 0 {
		return (a + b/2) / b
	}
	return -((-a + b/2) / b)
}
