package model

// Service is a row of the salon catalog. The booking flow only reads it;
// catalog management owns all mutation.
type Service struct {
	ID          string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64 `json:"price" bson:"price"`
	Duration    int     `json:"duration" bson:"duration"`
	// Capacity is the maximum number of concurrent bookings per time slot.
	Capacity int    `json:"capacity" bson:"capacity"`
	Image    string `json:"image,omitempty" bson:"image,omitempty"`
}
