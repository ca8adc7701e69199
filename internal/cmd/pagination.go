package cmd

// pageBounds returns the [start, end) row range of a page, the effective page
// number and the total. A non-positive limit means everything on one page.
func pageBounds(total, page, limit int) (start, end, effective int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return 0, total, page
	}

	// Compare page numbers first; (page-1)*limit overflows for huge pages.
	if page-1 >= pageCount(total, limit) || total == 0 {
		return total, total, page
	}
	start = (page - 1) * limit
	end = min(start+limit, total)
	return start, end, page
}

// pageCount is the number of pages needed for total rows.
func pageCount(total, limit int) int {
	if limit <= 0 || total == 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
