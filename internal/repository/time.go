package repository

import (
	"time"

	"github.com/NickMickmlnn/GameTracking/internal/domain"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(domain.TimestampLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(domain.TimestampLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
