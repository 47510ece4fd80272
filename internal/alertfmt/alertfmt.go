// Package alertfmt renders alert timestamps as relative-age labels.
package alertfmt

import (
	"fmt"
	"time"

	"aquatech-monitor/internal/models"
)

// RelativeAge labels the age of ts as seen from now.
//
// Whole days win first, then hours once the age is strictly over 3600 seconds, then
// minutes. An age of exactly one hour therefore reads "60 min ago"; existing dashboards
// depend on that boundary. Timestamps in the future are treated as zero age.
func RelativeAge(now, ts time.Time) string {
	total := int64(now.Sub(ts) / time.Second)
	if total < 0 {
		total = 0
	}
	if days := total / 86400; days > 0 {
		return fmt.Sprintf("%d days ago", days)
	}
	if total > 3600 {
		return fmt.Sprintf("%d hours ago", total/3600)
	}
	return fmt.Sprintf("%d min ago", total/60)
}

// Views renders alerts for display, preserving their order.
func Views(now time.Time, alerts []models.Alert) []models.AlertView {
	views := make([]models.AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, models.AlertView{
			Type:    a.Type(),
			Message: a.Message,
			Time:    RelativeAge(now, a.Timestamp),
		})
	}
	return views
}
