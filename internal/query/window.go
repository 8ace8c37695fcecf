package query

// WindowSize bounds the number of page buttons shown at once.
const WindowSize = 5

// Window returns the page numbers to show for the current page. When there are
// more than WindowSize pages the window slides so the current page stays centered,
// pinned to the first or last WindowSize pages near either end.
func Window(page, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	page = Clamp(page, totalPages)
	start, end := 1, totalPages
	switch {
	case totalPages <= WindowSize:
	case page <= 3:
		end = WindowSize
	case page >= totalPages-2:
		start = totalPages - WindowSize + 1
	default:
		start, end = page-2, page+2
	}
	out := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, n)
	}
	return out
}

// Clamp bounds page to [1, totalPages]; an empty result set clamps to 1.
func Clamp(page, totalPages int) int {
	return max(1, min(page, totalPages))
}
