package match

// Score 计算两个标识符字符串的相同位置字符匹配率，返回 [0,1]。
// 只比较重叠区间内下标相同的字符，分母取较长一侧的长度，
// 因此分子与分母对参数顺序都是对称的，Score(a,b) == Score(b,a)。
// 注意：这是位置敏感的比率，不是编辑距离；"abc" 与 "bca"
// 虽然字符集相同，得分也会很低。
func Score(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	shorter := len(a)
	longer := len(b)
	if shorter > longer {
		shorter, longer = longer, shorter
	}

	matches := 0
	for i := 0; i < shorter; i++ {
		if a[i] == b[i] {
			matches++
		}
	}

	return float64(matches) / float64(longer)
}
