package services

import (
	"testing"

	"campuslink/internal/db"
	"campuslink/internal/models"
	"campuslink/internal/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 用内存 sqlite 替换全局连接，跑与生产相同的迁移
func setupTestDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// 内存库只允许单连接，避免连接池各自拿到空库
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	db.DB = gdb
}

func createTestUser(t *testing.T, email, firstName, lastName string) *models.User {
	t.Helper()
	user := models.User{
		Email:     email,
		Password:  "hash",
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func createTestPost(t *testing.T, userID *uint, title string) *models.Post {
	t.Helper()
	channel := models.Channel{Name: "general-" + utils.RandStringBytesMaskImpr(6)}
	if err := db.DB.Create(&channel).Error; err != nil {
		t.Fatalf("Failed to create test channel: %v", err)
	}
	post := models.Post{
		Pid:       utils.RandStringBytesMaskImpr(8),
		ChannelID: channel.ID,
		UserID:    userID,
		Title:     title,
		IsActive:  true,
	}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return &post
}

func createTestComment(t *testing.T, postID uint, parentID *uint, userID *uint, content string, anonymous bool) *models.Comment {
	t.Helper()
	comment := models.Comment{
		Cid:         utils.RandStringBytesMaskImpr(8),
		PostID:      postID,
		ParentID:    parentID,
		UserID:      userID,
		Content:     content,
		IsAnonymous: anonymous,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}
	return &comment
}

func createTestPoll(t *testing.T, postID uint, texts ...string) []models.PollOption {
	t.Helper()
	if err := CreatePollOptions(db.DB, postID, texts); err != nil {
		t.Fatalf("Failed to create poll options: %v", err)
	}
	var options []models.PollOption
	if err := db.DB.Where("post_id = ?", postID).Order("position ASC").Find(&options).Error; err != nil {
		t.Fatalf("Failed to load poll options: %v", err)
	}
	return options
}
