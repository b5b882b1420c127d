package domain

import "time"

// User is an anonymous identity. Every workout record is scoped to one.
type User struct {
	ID         string    `bson:"_id" json:"id"` // UUID issued at sign-in
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	LastSeenAt time.Time `bson:"lastSeenAt" json:"lastSeenAt"`
}
