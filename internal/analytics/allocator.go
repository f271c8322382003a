package analytics

import "sort"

// Share 一个待分配的类目及其百分比
type Share struct {
	Category string
	Pct      Percent
}

// Allocate 按最大余数法把 total 分配到各类目，保证结果之和恰好等于 total
//
// 每个类目先取 total*pct 的向下取整，再把剩余名额按小数部分从大到小
// 每类目发放一个，名额多于类目数时循环发放。小数部分相同时按类目
// 声明顺序（稳定排序）。total <= 0 时全部为 0。
func Allocate(total int, shares []Share) map[string]int {
	result := make(map[string]int, len(shares))
	for _, s := range shares {
		result[s.Category] = 0
	}
	if total <= 0 || len(shares) == 0 {
		return result
	}

	type slot struct {
		category string
		frac     int
	}
	ranked := make([]slot, 0, len(shares))
	allocated := 0
	for _, s := range shares {
		whole, frac := s.Pct.scale(total)
		result[s.Category] = whole
		allocated += whole
		ranked = append(ranked, slot{category: s.Category, frac: frac})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].frac > ranked[j].frac
	})

	remainder := total - allocated
	if remainder >= 0 {
		for i := 0; i < remainder; i++ {
			result[ranked[i%len(ranked)].category]++
		}
		return result
	}

	// 百分比之和超过 100% 时才会走到这里（脏数据），从大余数类目逐个扣回，
	// 不把任何类目扣成负数
	for i := 0; i < -remainder; i++ {
		key := ranked[i%len(ranked)].category
		if result[key] > 0 {
			result[key]--
		}
	}
	return result
}
