package shared

import "time"

var dateLayouts = []string{time.RFC3339, "2006-01-02", "02.01.2006"}

// ParseDate accepts RFC3339, YYYY-MM-DD or the local DD.MM.YYYY form. An empty
// value yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range dateLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}
