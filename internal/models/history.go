package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MoodSummary is what a member shared on a given day
type MoodSummary struct {
	Mood int     `json:"mood"`
	Note *string `json:"note"`
}

// MemberMood pairs a member with their check-in for a day.
// Mood is nil when the member did not check in.
type MemberMood struct {
	UserID string
	Mood   *MoodSummary
}

// DayRecord is one row of the joint history.
//
// On the wire it is a flat object: {"date": "...", "<user id>": {...} | null, ...}
// with member keys written in relationship join order.
type DayRecord struct {
	Date    Date
	Members []MemberMood
}

// For returns the entry for userID
func (d DayRecord) For(userID string) (MemberMood, bool) {
	for _, m := range d.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return MemberMood{}, false
}

func (d DayRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	date, err := json.Marshal(d.Date)
	if err != nil {
		return nil, err
	}
	buf.Write(date)

	for _, m := range d.Members {
		key, err := json.Marshal(m.UserID)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		if m.Mood == nil {
			buf.WriteString("null")
			continue
		}
		value, err := json.Marshal(m.Mood)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *DayRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("day record: expected object")
	}

	record := DayRecord{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("day record: expected string key")
		}

		if key == "date" {
			if err := dec.Decode(&record.Date); err != nil {
				return fmt.Errorf("day record: %w", err)
			}
			continue
		}

		var mood *MoodSummary
		if err := dec.Decode(&mood); err != nil {
			return fmt.Errorf("day record member %s: %w", key, err)
		}
		record.Members = append(record.Members, MemberMood{UserID: key, Mood: mood})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = record
	return nil
}
