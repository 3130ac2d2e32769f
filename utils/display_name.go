package utils

import (
	"fmt"
	"time"
)

// DisplayName builds a time-suffixed asset name, e.g. GOES19_2025-01-02_15-04-05.
// The suffix keeps the platform from treating consecutive uploads as duplicates.
func DisplayName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, t.Format("2006-01-02_15-04-05"))
}
