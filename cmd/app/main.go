package main

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/wichananm65/service-market-backend/internal/catalog"
	"github.com/wichananm65/service-market-backend/internal/config"
	"github.com/wichananm65/service-market-backend/internal/industry"
	"github.com/wichananm65/service-market-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger)

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()

	ensureSchema(db)

	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	industryRepo := industry.NewPostgresRepository(db)
	industryService := industry.NewService(industryRepo)
	industryHandler := industry.NewHandler(industryService)

	// catalog search derives its industry scope from the preference store
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo, industryService)
	catalogHandler := catalog.NewHandler(catalogService)

	userHandler.RegisterPublicRoutes(app)
	industryHandler.RegisterPublicRoutes(app)
	catalogHandler.RegisterPublicRoutes(app)

	// make uploaded files public
	app.Static("/uploads", "./uploads")

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		// allow unauthenticated GETs for the guest-facing catalog surface
		Filter: func(c *fiber.Ctx) bool {
			if c.Method() != "GET" {
				return false
			}
			p := c.Path()
			return strings.HasPrefix(p, "/api/v1/guest/") ||
				strings.HasPrefix(p, "/api/v1/feed/") ||
				p == "/api/v1/industries"
		},
	}))

	userHandler.RegisterProtectedRoutes(app)
	industryHandler.RegisterProtectedRoutes(app)
	catalogHandler.RegisterProtectedRoutes(app)

	app.Listen(cfg.Addr)
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	fmt.Printf("URL = %s, Method = %s, Start Time = %v\n", c.OriginalURL(), c.Method(), start)
	return c.Next()
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}

// ensureSchema creates the marketplace tables when missing and seeds the
// industry reference data on an empty database.
func ensureSchema(db *sql.DB) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		user_id SERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		phone TEXT,
		created_at TEXT,
		updated_at TEXT
	)`); err != nil {
		panic(err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS industries (
		industry_id SERIAL PRIMARY KEY,
		industry_name TEXT NOT NULL,
		description TEXT
	)`); err != nil {
		panic(err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS user_industries (
		user_id INT NOT NULL,
		industry_id INT NOT NULL,
		UNIQUE (user_id, industry_id)
	)`); err != nil {
		panic(err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS services (
		service_id SERIAL PRIMARY KEY,
		owner_user_id INT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		industry_id INT NOT NULL,
		published BOOLEAN NOT NULL DEFAULT false,
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION,
		plans JSONB NOT NULL DEFAULT '[]',
		images TEXT[] NOT NULL DEFAULT ARRAY[]::text[],
		created_at TEXT,
		updated_at TEXT
	)`); err != nil {
		panic(err)
	}

	var industryCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM industries`).Scan(&industryCount); err == nil {
		if industryCount == 0 {
			seed := []struct{ name, desc string }{
				{"Construction", "Building, renovation and repair work"},
				{"Design", "Graphic, interior and product design"},
				{"Education", "Tutoring, courses and training"},
				{"Finance", "Accounting, tax and bookkeeping"},
				{"Health", "Wellness, therapy and personal care"},
				{"Hospitality", "Catering and event services"},
				{"Legal", "Legal advice and document services"},
				{"Logistics", "Moving, delivery and transport"},
				{"Software", "Development, IT support and web services"},
				{"Trades", "Plumbing, electrics and handywork"},
			}
			for _, s := range seed {
				if _, err := db.Exec(`INSERT INTO industries (industry_name, description) VALUES ($1,$2)`, s.name, s.desc); err != nil {
					continue
				}
			}
		}
	}
}
