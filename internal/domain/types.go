package domain

import "time"

type Restaurant struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	WorkingHours string    `json:"workingHours"`
	Phone        string    `json:"phone"`
	PriceRange   int       `json:"priceRange"`
	Atmosphere   []string  `json:"atmosphere"`
	Dishes       []*Dish   `json:"dishes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Dish struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurantId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"imageUrl"`
	Ingredients  []string  `json:"ingredients"`
	Tags         []string  `json:"tags"`
	Allergens    []string  `json:"allergens"`
	CreatedAt    time.Time `json:"createdAt"`
}

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserPreference struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	Tag        string `json:"tag"`
	Atmosphere string `json:"atmosphere"`
	Allergen   string `json:"allergen"`
}
