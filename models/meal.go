package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// FoodList is the ordered set of food names the classifier detected in a
// single photo, stored as a JSON array in a text column.
type FoodList []string

func (f FoodList) Value() (driver.Value, error) {
	if f == nil {
		f = FoodList{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *FoodList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = FoodList{}
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported foods column type %T", src)
	}
}

// One captured meal. Created once at capture time, immutable afterwards.
type Meal struct {
	gorm.Model
	UserID   uint     `gorm:"index;not null" json:"user_id"`
	Foods    FoodList `gorm:"type:text" json:"foods"`
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"` // g, fractional — rounded at display time only
	Carbs    float64  `json:"carbs"`
	Fats     float64  `json:"fats"`
	Image    string   `gorm:"type:text" json:"image"` // stored image URL
}
