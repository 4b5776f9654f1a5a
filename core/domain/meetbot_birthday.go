package domain

import (
	"strings"
	"time"
)

// Birthday is a reminder record kept in the birthdays collection. Date uses
// the dd-mm-yyyy form the records were originally captured in; matching
// ignores the year.
type Birthday struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Date      string    `json:"date" bson:"date"`
	Phone     string    `json:"phone" bson:"phone"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// DueOn reports whether the birthday falls on the given day, comparing
// day-month only.
func (b *Birthday) DueOn(day time.Time) bool {
	parts := strings.SplitN(b.Date, "-", 3)
	if len(parts) < 2 {
		return false
	}
	return parts[0]+"-"+parts[1] == day.Format("02-01")
}
