package repository

import (
	"kassa/internal/database"
)

type Repositories struct {
	Events *EventRepository
	Orders *OrderRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events: NewEventRepository(db),
		Orders: NewOrderRepository(db),
	}
}
