package models

import "time"

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CalculationType string

const (
	Add      CalculationType = "add"
	Subtract CalculationType = "subtract"
	Multiply CalculationType = "multiply"
	Divide   CalculationType = "divide"
)

// CalculationTypes lists every supported operation tag.
var CalculationTypes = []CalculationType{Add, Subtract, Multiply, Divide}

func (t CalculationType) Valid() bool {
	switch t {
	case Add, Subtract, Multiply, Divide:
		return true
	}
	return false
}

type Calculation struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	UserID    int64           `json:"user_id" gorm:"index;not null"`
	A         float64         `json:"a" gorm:"not null"`
	B         float64         `json:"b" gorm:"not null"`
	Type      CalculationType `json:"type" gorm:"size:16;not null"`
	Result    float64         `json:"result" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
