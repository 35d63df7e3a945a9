package repository

import (
	"fmt"

	"github.com/yourusername/sharpline/internal/database"
)

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Opportunity: NewPostgresOpportunityRepository(db),
		Parlay:      NewPostgresParlayRepository(db),
	}, nil
}
