package employee

import "strconv"

const uniqueIDPrefix = "IDS_"

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// NextIdentity returns the id and display label for a new employee: the id
// follows the largest existing id, the label follows the number of employees.
// Labels can repeat after deletions.
func NextIdentity(existing []Employee) (int64, string) {
	var maxID int64
	for _, e := range existing {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	return maxID + 1, uniqueIDPrefix + strconv.Itoa(len(existing)+1)
}
