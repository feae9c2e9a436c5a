package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		price REAL NOT NULL,
		category_id INTEGER,
		FOREIGN KEY(category_id) REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		serveur_id INTEGER,
		total REAL,
		date TEXT,
		FOREIGN KEY(serveur_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER,
		product_id INTEGER,
		qty INTEGER,
		price REAL,
		FOREIGN KEY(order_id) REFERENCES orders(id),
		FOREIGN KEY(product_id) REFERENCES products(id)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cafe_name TEXT NOT NULL
	)`,
}

// MySQL enforces foreign keys, so only the order header link is declared:
// servers and products may be removed without rewriting sales history.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		category_id INT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INT AUTO_INCREMENT PRIMARY KEY,
		serveur_id INT,
		total DECIMAL(10,2),
		date VARCHAR(19)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_id INT,
		product_id INT,
		qty INT,
		price DECIMAL(10,2),
		FOREIGN KEY (order_id) REFERENCES orders(id)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INT AUTO_INCREMENT PRIMARY KEY,
		cafe_name VARCHAR(255) NOT NULL
	)`,
}

// EnsureSchema creates the six tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.dialect == DriverMySQL {
		schema = mysqlSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

type seedProduct struct {
	name     string
	price    int64
	category string
}

var (
	seedUsers = []domain.User{
		{Username: "ali", Password: "1234", Role: domain.RoleServer},
		{Username: "hamid", Password: "5678", Role: domain.RoleServer},
		{Username: "admin", Password: "admin", Role: domain.RoleAdmin},
	}
	seedCategories = []string{"Petit déjeuner", "Déjeuner", "Café", "Jus", "Dessert"}
	seedProducts   = []seedProduct{
		{"Café", 10, "Café"},
		{"Cappuccino", 14, "Café"},
		{"Thé", 8, "Café"},
		{"Café au lait", 11, "Café"},

		{"Jus d'orange", 12, "Jus"},
		{"Jus de citron", 11, "Jus"},

		{"Croissant", 5, "Petit déjeuner"},
		{"Msemen", 7, "Petit déjeuner"},

		{"Tacos poulet", 22, "Déjeuner"},
		{"Panini fromage", 20, "Déjeuner"},

		{"Gâteau au chocolat", 15, "Dessert"},
	}
)

// Seed fills a fresh database (no users yet) with the starter catalog and
// accounts, and makes sure the settings row exists. It reports whether
// starter data was inserted.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	seeded := false
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		var users int64
		if err := s.get(ctx, &users, "SELECT COUNT(*) FROM users"); err != nil {
			return err
		}
		if users == 0 {
			for _, u := range seedUsers {
				u := u
				if err := s.CreateUser(ctx, &u); err != nil {
					return err
				}
			}
			catIDs := make(map[string]int64, len(seedCategories))
			for _, name := range seedCategories {
				c := domain.Category{Name: name}
				if err := s.CreateCategory(ctx, &c); err != nil {
					return err
				}
				catIDs[name] = c.ID
			}
			for _, sp := range seedProducts {
				p := domain.Product{Name: sp.name, Price: decimal.NewFromInt(sp.price), CategoryID: catIDs[sp.category]}
				if err := s.CreateProduct(ctx, &p); err != nil {
					return err
				}
			}
			seeded = true
		}

		var settings int64
		if err := s.get(ctx, &settings, "SELECT COUNT(*) FROM settings"); err != nil {
			return err
		}
		if settings == 0 {
			return s.SaveSettings(ctx, &domain.Settings{CafeName: domain.DefaultCafeName})
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	return seeded, nil
}
