package view

import "strconv"

// CountLabel is the text shown on the counter button.
func CountLabel(count int64) string {
	return "count is " + strconv.FormatInt(count, 10)
}
