package models

import "github.com/lib/pq"

// Wishlist хранит избранные события пользователя. У пользователя не больше одного вишлиста.
type Wishlist struct {
	ID       int64         `db:"id" json:"id"`
	UserID   int64         `db:"user_id" json:"user_id"`
	EventIDs pq.Int64Array `db:"event_ids" json:"event_ids"`
}

// Contains проверяет, есть ли событие в вишлисте.
func (w *Wishlist) Contains(eventID int64) bool {
	for _, id := range w.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}
