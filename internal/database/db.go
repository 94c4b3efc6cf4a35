package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/justsurfingit/hiring-pipeline/internal/models"
)

// Connect opens the journal database and migrates its tables.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	log.Println("Running Migrations...")
	if err := db.AutoMigrate(&models.StatusChangeEvent{}); err != nil {
		return nil, err
	}
	return db, nil
}
