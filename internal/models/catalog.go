package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of the week as stored in time_slots.day_of_week.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// Valid reports whether d is one of the seven known days.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// ClockTime is a wall-clock time of day expressed as minutes after midnight.
type ClockTime int

// NewClockTime builds a ClockTime from hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime accepts "15:04" or "15:04:05".
func ParseClockTime(raw string) (ClockTime, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewClockTime(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", raw)
}

// String renders the time as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Scan implements sql.Scanner for Postgres TIME columns.
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = 0
		return nil
	case time.Time:
		*c = NewClockTime(v.Hour(), v.Minute())
		return nil
	case []byte:
		return c.Scan(string(v))
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case int64:
		*c = ClockTime(v)
		return nil
	}
	return fmt.Errorf("unsupported clock time source %T", src)
}

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}

// MarshalText renders HH:MM in JSON payloads.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses HH:MM.
func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClockTime(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Course is a catalog course.
type Course struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
}

// Room is a physical teaching room.
type Room struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Building string `db:"building" json:"building"`
}

// TimeSlot is a weekly meeting pattern.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek Weekday   `db:"day_of_week" json:"day_of_week"`
	StartTime ClockTime `db:"start_time" json:"start_time"`
	EndTime   ClockTime `db:"end_time" json:"end_time"`
}

// String renders e.g. "MONDAY 09:00-10:00".
func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.DayOfWeek, t.StartTime, t.EndTime)
}

// Offering is a course section delivered in one term. AvailableSeats is the seat ledger.
type Offering struct {
	ID             string   `db:"id" json:"id"`
	CourseID       string   `db:"course_id" json:"course_id"`
	SectionCode    string   `db:"section_code" json:"section_code"`
	Semester       Semester `db:"semester" json:"semester"`
	Year           int      `db:"year" json:"year"`
	InstructorID   *string  `db:"instructor_id" json:"instructor_id,omitempty"`
	Capacity       int      `db:"capacity" json:"capacity"`
	AvailableSeats int      `db:"available_seats" json:"available_seats"`
}

// Term returns the offering's academic term.
func (o Offering) Term() Term {
	return Term{Semester: o.Semester, Year: o.Year}
}

// OfferingDetail joins the offering with its course.
type OfferingDetail struct {
	Offering
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
}

// ScheduleSlot attaches a room and time slot to an offering.
type ScheduleSlot struct {
	ID           string  `db:"id" json:"id"`
	OfferingID   string  `db:"offering_id" json:"offering_id"`
	RoomID       string  `db:"room_id" json:"room_id"`
	TimeSlotID   string  `db:"time_slot_id" json:"time_slot_id"`
	InstructorID *string `db:"instructor_id" json:"instructor_id,omitempty"`
}

// ScheduleSlotDetail is a schedule slot resolved against its offering, course,
// room and time slot. Nullable joins stay nil when the referenced row is gone.
type ScheduleSlotDetail struct {
	ScheduleSlotID string     `db:"schedule_slot_id" json:"schedule_slot_id"`
	OfferingID     *string    `db:"offering_id" json:"offering_id"`
	CourseID       *string    `db:"course_id" json:"course_id,omitempty"`
	CourseCode     *string    `db:"course_code" json:"course_code,omitempty"`
	CourseName     *string    `db:"course_name" json:"course_name,omitempty"`
	SectionCode    *string    `db:"section_code" json:"section_code,omitempty"`
	AvailableSeats *int       `db:"available_seats" json:"available_seats,omitempty"`
	TimeSlotID     *string    `db:"time_slot_id" json:"time_slot_id,omitempty"`
	DayOfWeek      *Weekday   `db:"day_of_week" json:"day_of_week,omitempty"`
	StartTime      *ClockTime `db:"start_time" json:"start_time,omitempty"`
	EndTime        *ClockTime `db:"end_time" json:"end_time,omitempty"`
	RoomName       *string    `db:"room_name" json:"room_name,omitempty"`
	InstructorName *string    `db:"instructor_name" json:"instructor_name,omitempty"`
}

// Resolved reports whether offering, course and time slot were all found.
func (d ScheduleSlotDetail) Resolved() bool {
	return d.OfferingID != nil && d.CourseID != nil && d.CourseCode != nil && d.CourseName != nil &&
		d.SectionCode != nil && d.AvailableSeats != nil &&
		d.TimeSlotID != nil && d.DayOfWeek != nil && d.StartTime != nil && d.EndTime != nil
}

// TimeSlot returns the resolved time slot. Callers check Resolved first.
func (d ScheduleSlotDetail) TimeSlot() TimeSlot {
	return TimeSlot{ID: deref(d.TimeSlotID), DayOfWeek: *d.DayOfWeek, StartTime: *d.StartTime, EndTime: *d.EndTime}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OfferingMeeting is one weekly meeting of an offering with its course label.
type OfferingMeeting struct {
	OfferingID string    `db:"offering_id" json:"offering_id"`
	CourseName string    `db:"course_name" json:"course_name"`
	DayOfWeek  Weekday   `db:"day_of_week" json:"day_of_week"`
	StartTime  ClockTime `db:"start_time" json:"start_time"`
	EndTime    ClockTime `db:"end_time" json:"end_time"`
}

// TimeSlot returns the meeting's day and time range.
func (m OfferingMeeting) TimeSlot() TimeSlot {
	return TimeSlot{DayOfWeek: m.DayOfWeek, StartTime: m.StartTime, EndTime: m.EndTime}
}
