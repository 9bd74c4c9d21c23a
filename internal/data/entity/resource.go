package entity

// Resource is a bookable thing with discrete time slots, e.g. a simulator bay.
type Resource struct {
	BaseNoDelete
	Code     string `db:"code"` // BAY1, BAY2, etc.
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
}
