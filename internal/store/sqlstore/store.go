package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/citylink/citylink/internal/models"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		favorite_city TEXT,
		is_admin BOOLEAN DEFAULT FALSE,
		api_token TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room TEXT NOT NULL,
		author_id INTEGER NOT NULL,
		display_name TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (author_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages(room, id);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func (s *SQLStore) CreateUser(user *models.User) error {
	query := s.rebind("INSERT INTO users (email, username, password_hash, favorite_city, is_admin, api_token) VALUES (?, ?, ?, ?, ?, ?) RETURNING id")
	return s.db.QueryRow(query, user.Email, user.Username, user.PasswordHash, user.FavoriteCity, user.IsAdmin, user.APIToken).Scan(&user.ID)
}

const userColumns = "id, email, username, COALESCE(favorite_city, ''), is_admin, password_hash, COALESCE(api_token, ''), created_at"

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.FavoriteCity, &user.IsAdmin, &user.PasswordHash, &user.APIToken, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	return s.scanUser(s.db.QueryRow(query, email))
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	return s.scanUser(s.db.QueryRow(query, id))
}

func (s *SQLStore) GetUserByAPIToken(token string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE api_token = ?")
	return s.scanUser(s.db.QueryRow(query, token))
}

func (s *SQLStore) ListUsers() ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FavoriteCity, &u.IsAdmin, &u.PasswordHash, &u.APIToken, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) UpdateProfile(id int, username, favoriteCity string) error {
	query := s.rebind("UPDATE users SET username = ?, favorite_city = ? WHERE id = ?")
	_, err := s.db.Exec(query, username, favoriteCity, id)
	return err
}

func (s *SQLStore) UpdateUser(id int, username, favoriteCity string, isAdmin bool) error {
	query := s.rebind("UPDATE users SET username = ?, favorite_city = ?, is_admin = ? WHERE id = ?")
	_, err := s.db.Exec(query, username, favoriteCity, isAdmin, id)
	return err
}

// SetAPIToken overwrites any previous token; an account has at most one
// live API token.
func (s *SQLStore) SetAPIToken(userID int, token string) error {
	query := s.rebind("UPDATE users SET api_token = ? WHERE id = ?")
	result, err := s.db.Exec(query, token, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLStore) DeleteUser(id int) error {
	// Delete the user's messages first, mirroring the account-delete
	// cascade: removing an account removes its history.
	query := s.rebind("DELETE FROM messages WHERE author_id = ?")
	if _, err := s.db.Exec(query, id); err != nil {
		return err
	}

	query = s.rebind("DELETE FROM users WHERE id = ?")
	_, err := s.db.Exec(query, id)
	return err
}

// AppendMessage persists a message and returns it with the store-assigned
// id and timestamp. Ids are strictly increasing and never reused.
func (s *SQLStore) AppendMessage(room string, authorID int, displayName, content string) (*models.Message, error) {
	msg := &models.Message{
		Room:        room,
		AuthorID:    authorID,
		DisplayName: displayName,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	query := s.rebind("INSERT INTO messages (room, author_id, display_name, content, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id")
	err := s.db.QueryRow(query, msg.Room, msg.AuthorID, msg.DisplayName, msg.Content, msg.CreatedAt).Scan(&msg.ID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// RoomMessages returns at most limit messages for room, taken from the
// most recent end, ascending by id.
func (s *SQLStore) RoomMessages(room string, limit int) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, room, author_id, display_name, content, created_at FROM (
			SELECT id, room, author_id, display_name, content, created_at
			FROM messages
			WHERE room = ?
			ORDER BY id DESC
			LIMIT ?
		) AS recent
		ORDER BY id ASC
	`)
	rows, err := s.db.Query(query, room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Room, &m.AuthorID, &m.DisplayName, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
