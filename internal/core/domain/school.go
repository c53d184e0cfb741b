package domain

// School is a persisted school record.
type School struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SchoolInput is a validated record that has not been stored yet.
type SchoolInput struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location returns the coordinate of the input.
func (in SchoolInput) Location() GeoPoint {
	return GeoPoint{Lat: in.Latitude, Lon: in.Longitude}
}

// Location returns the coordinate of the school.
func (s School) Location() GeoPoint {
	return GeoPoint{Lat: s.Latitude, Lon: s.Longitude}
}

// RankedSchool is a school annotated with its distance to a query point.
type RankedSchool struct {
	School
	Distance float64 `json:"distance"` // computed field, planar degrees
}

// SchoolEvent is published after a successful write.
type SchoolEvent struct {
	Type   string  `json:"type"` // created | batch_created | purged
	School *School `json:"school,omitempty"`
	Count  int     `json:"count,omitempty"`
}

const (
	EventSchoolCreated       = "created"
	EventSchoolsBatchCreated = "batch_created"
	EventSchoolsPurged       = "purged"
)
