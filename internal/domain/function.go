package domain

import (
	"time"

	"github.com/google/uuid"
)

// Function is a catered event booked by a customer.
type Function struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name             string     `gorm:"size:120;not null"`
	LobbySign        string     `gorm:"size:60"`
	StartTime        time.Time  `gorm:"not null"`
	EndTime          *time.Time
	SetupNotes       string     `gorm:"type:text"`
	GuaranteedNumber int        `gorm:"not null;default:0"`
	BaseCharge       float64    `gorm:"type:decimal(12,2);default:0"`
	PerPersonCharge  float64    `gorm:"type:decimal(12,2);default:0"`
	SOCAN            float64    `gorm:"type:decimal(12,2);default:0"`
	Deposit          float64    `gorm:"type:decimal(12,2);default:0"`
	DepositPaid      bool       `gorm:"not null;default:false"`
	Alcohol          bool       `gorm:"not null;default:false"`
	CustomerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	FunctionTypeID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	MealTypeID       *uuid.UUID `gorm:"type:uuid;index"`
	FunctionType     *FunctionType
	MealType         *MealType
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (f Function) EstimatedValue() float64 {
	return f.BaseCharge + f.SOCAN + f.PerPersonCharge*float64(f.GuaranteedNumber)
}

type FunctionType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:50;not null;uniqueIndex"`
}

type MealType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:50;not null;uniqueIndex"`
}
