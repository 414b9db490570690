package services

// The stores are asked for limit+1 rows so a next page can be detected
// without a separate count query.

func normalizePage(limit, page, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if page < 1 {
		page = 1
	}
	return limit, page
}

// trimPage drops the probe row when present and computes the page links.
func trimPage[T any](items []T, page, limit int) ([]T, *int, *int) {
	var nextPage *int
	if len(items) > limit {
		items = items[:limit]
		next := page + 1
		nextPage = &next
	}
	var prevPage *int
	if page > 1 {
		prev := page - 1
		prevPage = &prev
	}
	return items, nextPage, prevPage
}
