package handlers

import (
	"time"

	"github.com/Danx101/AIL-APP-sub003/internal/models"
	"github.com/Danx101/AIL-APP-sub003/internal/timezone"
)

// resolves the studio's official timezone
func locationFromStudio(studio *models.Studio) *time.Location {
	if studio != nil {
		return timezone.Location(studio.Timezone)
	}
	return timezone.Location("")
}

func nowInStudio(studio *models.Studio) time.Time {
	return time.Now().In(locationFromStudio(studio))
}

func parseDateInStudio(studio *models.Studio, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		locationFromStudio(studio),
	)
}
