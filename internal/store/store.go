package store

import "github.com/citylink/citylink/internal/models"

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	GetUserByAPIToken(token string) (*models.User, error)
	ListUsers() ([]models.User, error)
	UpdateProfile(id int, username, favoriteCity string) error
	UpdateUser(id int, username, favoriteCity string, isAdmin bool) error
	SetAPIToken(userID int, token string) error
	DeleteUser(id int) error

	// Message log operations
	AppendMessage(room string, authorID int, displayName, content string) (*models.Message, error)
	RoomMessages(room string, limit int) ([]models.Message, error)
}
