package services

import (
	"sort"

	"vibe-check-backend/internal/models"
)

// BuildHistory groups vibes into one record per day, newest first.
//
// Each record lists every member in the given order, with a nil mood for
// members who did not check in. Days without a check-in from any member are
// not emitted.
func BuildHistory(members []models.User, vibes []*models.Vibe) []models.DayRecord {
	isMember := make(map[string]bool, len(members))
	for _, m := range members {
		isMember[m.ID] = true
	}

	byDay := make(map[string]map[string]*models.Vibe)
	dates := make(map[string]models.Date)

	for _, v := range vibes {
		if !isMember[v.UserID] {
			continue
		}
		key := v.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = make(map[string]*models.Vibe, len(members))
			byDay[key] = day
			dates[key] = v.Date
		}
		if _, seen := day[v.UserID]; !seen {
			day[v.UserID] = v
		}
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	records := make([]models.DayRecord, 0, len(keys))
	for _, k := range keys {
		day := byDay[k]
		record := models.DayRecord{
			Date:    dates[k],
			Members: make([]models.MemberMood, 0, len(members)),
		}
		for _, m := range members {
			entry := models.MemberMood{UserID: m.ID}
			if v, ok := day[m.ID]; ok {
				entry.Mood = &models.MoodSummary{Mood: v.Mood, Note: v.Note}
			}
			record.Members = append(record.Members, entry)
		}
		records = append(records, record)
	}

	return records
}
