package mailbox

// pageWindow returns the inclusive index range [start, end] holding page
// of a folder with count messages. ok is false once page starts past the
// last message.
//
// Both bounds are inclusive: page 2 of 250 messages at 100 per page is
// [101, 200] and page 3 is [201, 250].
func pageWindow(count, page, perPage int) (start, end int, ok bool) {
	if count <= perPage {
		return 1, count, true
	}

	start = (page-1)*perPage + 1
	if start < 1 {
		start = 1
	}
	if start > count {
		return 0, 0, false
	}

	end = page * perPage
	if end > count {
		end = count
	}
	return start, end, true
}
