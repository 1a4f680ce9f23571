package rwb

import (
	"fmt"
	"strconv"
	"time"
)

// noDueDate is the serialization of an absent due date. It can never equal
// a real timestamp's serialization, so clearing a due date changes the
// checksum.
const noDueDate = "none"

// Checksum fingerprints the mutable fields of a reminder. It is a 64-bit
// djb2 rolling hash over the delimiter-joined fields, rendered as a
// fixed-width hex string. The algorithm must stay byte-for-byte stable:
// stored snapshot checksums from earlier versions are compared against it
// directly.
func Checksum(title, listName string, isCompleted bool, dueDate *time.Time) string {
	completed := "0"
	if isCompleted {
		completed = "1"
	}
	due := noDueDate
	if dueDate != nil {
		due = strconv.FormatInt(dueDate.UTC().Unix(), 10)
	}

	s := title + "|" + listName + "|" + completed + "|" + due
	var h uint64 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint64(s[i])
	}
	return fmt.Sprintf("%016x", h)
}
