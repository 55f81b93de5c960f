package entities

import (
	"strings"
	"time"
)

// Category is a restaurant tag from a fixed enumeration
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryCoffee     Category = "coffee"
	CategoryPub        Category = "pub"
	CategoryBar        Category = "bar"
	CategoryBakery     Category = "bakery"
	CategoryFastFood   Category = "fast_food"
	CategoryDessert    Category = "dessert"
	CategoryBrunch     Category = "brunch"
	CategoryTakeaway   Category = "takeaway"
)

// AllCategories lists every known category in display order
var AllCategories = []Category{
	CategoryRestaurant,
	CategoryCafe,
	CategoryCoffee,
	CategoryPub,
	CategoryBar,
	CategoryBakery,
	CategoryFastFood,
	CategoryDessert,
	CategoryBrunch,
	CategoryTakeaway,
}

// ParseCategory normalizes a raw value and reports whether it is a known category
func ParseCategory(value string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllCategories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Restaurant represents a place that can be reviewed
type Restaurant struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Cuisine    string     `json:"cuisine" db:"cuisine"`
	Categories []Category `json:"categories" db:"-"`
	Address    Address    `json:"address" db:"-"`
	Location   Location   `json:"location" db:"-"`
	CreatedBy  string     `json:"created_by" db:"created_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// HasCategory reports whether the restaurant is tagged with c
func (r *Restaurant) HasCategory(c Category) bool {
	for _, own := range r.Categories {
		if own == c {
			return true
		}
	}
	return false
}

// Address represents a physical address
type Address struct {
	Street   string `json:"street" db:"street"`
	City     string `json:"city" db:"city"`
	Postcode string `json:"postcode" db:"postcode"`
	Country  string `json:"country" db:"country"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}
