package domain

import "time"

// Restaurant is the profile document of a restaurant operator, keyed by owner.
type Restaurant struct {
	OwnerID        string    `json:"ownerId"`
	RestaurantName string    `json:"restaurantName"`
	Description    string    `json:"description"`
	PhoneNumber    string    `json:"phoneNumber"`
	Address        string    `json:"address"`
	Cuisine        string    `json:"cuisine"`
	OpeningHours   string    `json:"openingHours"`
	OwnerName      string    `json:"ownerName"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
