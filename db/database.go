package db

import (
	"database/sql"
	"fmt"
	"log"

	"SelahFM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createAudioItemsTable(); err != nil {
		return err
	}
	if err := createFavoritesTables(); err != nil {
		return err
	}
	if err := createDailyItemsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(100),
		is_admin TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createAudioItemsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audio_items (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		speaker VARCHAR(255),
		category VARCHAR(100),
		object_key VARCHAR(767) NOT NULL,
		duration FLOAT NOT NULL DEFAULT 0,
		is_premium TINYINT(1) NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT uq_audio_object_key UNIQUE (object_key)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create audio_items table: %w", err)
	}
	log.Println("Audio items table initialized successfully (or already exists).")
	return nil
}

func createFavoritesTables() error {
	// Existence-only join tables. The unique key carries the
	// one-row-per-(user,item) invariant.
	queries := map[string]string{
		"audio_favorites": `
		CREATE TABLE IF NOT EXISTS audio_favorites (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			audio_item_id INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_audio_fav UNIQUE (user_id, audio_item_id),
			CONSTRAINT fk_audio_fav_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT fk_audio_fav_item FOREIGN KEY (audio_item_id) REFERENCES audio_items(id) ON DELETE CASCADE
		);
		`,
		"daily_favorites": `
		CREATE TABLE IF NOT EXISTS daily_favorites (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			daily_item_id INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_daily_fav UNIQUE (user_id, daily_item_id),
			CONSTRAINT fk_daily_fav_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
		`,
	}
	for name, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", name, err)
		}
	}
	log.Println("Favorites tables initialized successfully (or already exist).")
	return nil
}

func createDailyItemsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS daily_items (
		id INT AUTO_INCREMENT PRIMARY KEY,
		publish_on DATE NOT NULL,
		kind VARCHAR(20) NOT NULL,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		attribution VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_daily_publish_on (publish_on)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create daily_items table: %w", err)
	}
	log.Println("Daily items table initialized successfully (or already exists).")
	return nil
}
