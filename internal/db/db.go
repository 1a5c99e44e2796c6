package db

import (
	"log"
	"os"

	"campuslink/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=campuslink port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedChannels()
}

// Migrate runs AutoMigrate for every model. Split out so tests can run the
// same schema against their own database.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.Post{},
		&models.Comment{},
		&models.PostReaction{},
		&models.CommentReaction{},
		&models.PollOption{},
		&models.PollVote{},
	)
}

func seedChannels() {
	var count int64
	DB.Model(&models.Channel{}).Count(&count)
	if count > 0 {
		log.Println("Channels already seeded, skipping")
		return
	}

	channels := []models.Channel{
		{Name: "general", Description: "Campus-wide discussion"},
		{Name: "coursework", Description: "Questions and help on courses"},
		{Name: "events", Description: "Student events and meetups"},
		{Name: "marketplace", Description: "Buy, sell, swap"},
	}

	for _, channel := range channels {
		if err := DB.Create(&channel).Error; err != nil {
			log.Printf("Failed to create channel %s: %v", channel.Name, err)
		}
	}
	log.Println("Initial channels created successfully")
}
