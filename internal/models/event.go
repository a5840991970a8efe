package models

import (
	"database/sql/driver"
	"time"
)

// EventTypes: допустимые значения Event.EventType.
const (
	EventTypeSingleDay    = "Single Day"
	EventTypeMultipleDays = "Multiple Days"
)

// EventDateTime: один день проведения события. Дата в формате YYYY-MM-DD, время HH:MM.
type EventDateTime struct {
	Date  string `json:"date"`
	STime string `json:"stime"`
	ETime string `json:"etime"`
}

// EventDateTimes хранится в колонке jsonb.
type EventDateTimes []EventDateTime

func (d EventDateTimes) Value() (driver.Value, error) {
	return jsonValue(d, d == nil, "[]")
}

func (d *EventDateTimes) Scan(src interface{}) error {
	ok, err := scanJSON(src, d, "event date_times")
	if err == nil && !ok {
		*d = EventDateTimes{}
	}
	return err
}

// Upcoming сообщает, есть ли у события день позже today.
func (d EventDateTimes) Upcoming(today time.Time) bool {
	day := today.Format("2006-01-02")
	for _, dt := range d {
		if dt.Date > day {
			return true
		}
	}
	return false
}

// EventTags хранится в колонке jsonb.
type EventTags []string

func (t EventTags) Value() (driver.Value, error) {
	return jsonValue(t, t == nil, "[]")
}

func (t *EventTags) Scan(src interface{}) error {
	ok, err := scanJSON(src, t, "event tags")
	if err == nil && !ok {
		*t = EventTags{}
	}
	return err
}

// EventImage: загруженное изображение события.
type EventImage struct {
	ID         string     `json:"id"`
	File       string     `json:"file"`
	Preview    string     `json:"preview"`
	IsCover    bool       `json:"isCover"`
	FocusPoint FocusPoint `json:"focusPoint"`
}

// FocusPoint: точка кадрирования изображения в долях от размера.
type FocusPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EventImages хранится в колонке jsonb.
type EventImages []EventImage

func (i EventImages) Value() (driver.Value, error) {
	return jsonValue(i, i == nil, "[]")
}

func (i *EventImages) Scan(src interface{}) error {
	ok, err := scanJSON(src, i, "event images")
	if err == nil && !ok {
		*i = EventImages{}
	}
	return err
}

// Event описывает событие организации. OrganizationName заполняется только в выборках с join.
type Event struct {
	ID                 int64          `db:"id" json:"id"`
	OrgID              int64          `db:"org_id" json:"org_id"`
	UserID             int64          `db:"user_id" json:"user_id"`
	EventTitle         string         `db:"event_title" json:"event_title"`
	EventType          string         `db:"event_type" json:"event_type"`
	DateTimes          EventDateTimes `db:"date_times" json:"date_times"`
	PriceStartingRange float64        `db:"price_starting_range" json:"price_starting_range"`
	PriceEndingRange   float64        `db:"price_ending_range" json:"price_ending_range"`
	Currency           string         `db:"currency" json:"currency"`
	EventDesc          string         `db:"event_desc" json:"event_desc"`
	EventTags          EventTags      `db:"event_tags" json:"event_tags"`
	Images             EventImages    `db:"images" json:"images"`
	Video              string         `db:"video" json:"video"`
	IsPublished        bool           `db:"is_published" json:"is_published"`
	IsFeatured         bool           `db:"is_featured" json:"is_featured"`
	IsDisabled         bool           `db:"is_disabled" json:"is_disabled"`
	IsDeleted          bool           `db:"is_deleted" json:"-"`
	CreatedBy          int64          `db:"created_by" json:"created_by"`
	UpdatedBy          int64          `db:"updated_by" json:"updated_by"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
	OrganizationName   *string        `db:"organization_name" json:"organization_name,omitempty"`
}

// EventUpdate содержит изменяемые поля события. nil означает «не менять».
type EventUpdate struct {
	EventTitle         *string         `json:"event_title"`
	EventType          *string         `json:"event_type"`
	DateTimes          *EventDateTimes `json:"date_times"`
	PriceStartingRange *float64        `json:"price_starting_range"`
	PriceEndingRange   *float64        `json:"price_ending_range"`
	Currency           *string         `json:"currency"`
	EventDesc          *string         `json:"event_desc"`
	EventTags          *EventTags      `json:"event_tags"`
	Images             *EventImages    `json:"images"`
	Video              *string         `json:"video"`
}

// IsEmpty сообщает, что менять нечего.
func (u *EventUpdate) IsEmpty() bool {
	return u.EventTitle == nil && u.EventType == nil && u.DateTimes == nil &&
		u.PriceStartingRange == nil && u.PriceEndingRange == nil && u.Currency == nil &&
		u.EventDesc == nil && u.EventTags == nil && u.Images == nil && u.Video == nil
}

// EventFilter: условия выборки событий пользователя. Пустые поля не участвуют.
type EventFilter struct {
	UserID      int64
	Title       string
	Description string
	PriceStart  *float64
	PriceEnd    *float64
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
}
