package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Availability values accepted for component items.
const (
	InStock    = "InStock"
	OutOfStock = "OutOfStock"
	PreOrder   = "PreOrder"
)

// LabelValue is one (label, value) pair of a filter or specification list.
type LabelValue struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

type Brand struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id"`
	BrandName        string             `json:"brandName" bson:"brandName"`
	BrandDescription string             `json:"brandDescription" bson:"brandDescription"`
	BrandImage       string             `json:"brandImage" bson:"brandImage"`
	IsActive         bool               `json:"isActive" bson:"isActive"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type Category struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id"`
	CategoryName        string             `json:"categoryName" bson:"categoryName"`
	CategoryDescription string             `json:"categoryDescription" bson:"categoryDescription"`
	CategoryImage       string             `json:"categoryImage" bson:"categoryImage"`
	IsActive            bool               `json:"isActive" bson:"isActive"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Component is a part family (RAM, SSD, ...). FilterLabels is the
// specification schema its items fill in.
type Component struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	ComponentName string             `json:"componentName" bson:"componentName"`
	FilterLabels  []string           `json:"filterLabels" bson:"filterLabels"`
	IsActive      bool               `json:"isActive" bson:"isActive"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ComponentItem struct {
	ID             primitive.ObjectID  `json:"_id" bson:"_id"`
	Slug           string              `json:"slug" bson:"slug"`
	Component      primitive.ObjectID  `json:"component" bson:"component"`
	Brand          *primitive.ObjectID `json:"brand,omitempty" bson:"brand,omitempty"`
	FilterValues   []LabelValue        `json:"filterValues" bson:"filterValues"`
	Model          string              `json:"model" bson:"model"`
	UnitPrice      float64             `json:"unitPrice" bson:"unitPrice"`
	Availability   string              `json:"availability" bson:"availability"`
	Description    string              `json:"description" bson:"description"`
	Specifications []LabelValue        `json:"specifications" bson:"specifications"`
	MainImage      string              `json:"mainImage" bson:"mainImage"`
	SubImages      []string            `json:"subImages" bson:"subImages"`
	IsNewArrival   bool                `json:"isNewArrival" bson:"isNewArrival"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Images lists every blob the item references.
func (ci *ComponentItem) Images() []string {
	return append([]string{ci.MainImage}, ci.SubImages...)
}

type Accessory struct {
	ID           primitive.ObjectID  `json:"_id" bson:"_id"`
	Slug         string              `json:"slug" bson:"slug"`
	Name         string              `json:"name" bson:"name"`
	Brand        *primitive.ObjectID `json:"brand,omitempty" bson:"brand,omitempty"`
	Category     *primitive.ObjectID `json:"category,omitempty" bson:"category,omitempty"`
	Description  string              `json:"description" bson:"description"`
	OfferPrice   float64             `json:"offerPrice" bson:"offerPrice"`
	OldPrice     *float64            `json:"oldPrice,omitempty" bson:"oldPrice,omitempty"`
	MainImage    string              `json:"mainImage" bson:"mainImage"`
	SubImages    []string            `json:"subImages" bson:"subImages"`
	IsNewArrival bool                `json:"isNewArrival" bson:"isNewArrival"`
	IsActive     bool                `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func (a *Accessory) Images() []string {
	return append([]string{a.MainImage}, a.SubImages...)
}

// RefName is the display projection of a referenced document.
type RefName struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
}

// ComponentItemView is a component item with its references populated.
// The outer fields shadow the raw ids when encoded.
type ComponentItemView struct {
	ComponentItem
	Component *RefName `json:"component"`
	Brand     *RefName `json:"brand"`
}

type AccessoryView struct {
	Accessory
	Brand    *RefName `json:"brand"`
	Category *RefName `json:"category"`
}
