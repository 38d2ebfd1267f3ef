package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"presenceBack/internal/attendance"
	"presenceBack/internal/attendance/repo"
	"presenceBack/internal/config"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	cfg := config.LoadConfig()

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	if err := run(cfg, *addr, infoLog, errorLog); err != nil {
		errorLog.Fatal(err)
	}
}

// run starts the server and blocks until it stops.
func run(cfg config.Config, addr string, infoLog, errorLog *log.Logger) error {
	attendanceCfg, err := attendance.LoadAttendanceConfig()
	if err != nil {
		return err
	}
	deps := &attendance.AttendanceDeps{
		Logger: logAdapter{info: infoLog, err: errorLog},
		Config: attendanceCfg,
	}

	if cfg.Database.Driver == "memory" {
		infoLog.Printf("Using in-memory attendance store")
		deps.Memory = repo.NewMemoryStore()
	} else {
		dialect, err := repo.ParseDialect(cfg.Database.Driver)
		if err != nil {
			return err
		}
		db, err := openDB(dialect.DriverName(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.DB = db
		deps.Dialect = dialect
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			errorLog.Printf("Redis ping failed, completion events may be lost: %v", err)
		}
		cancel()
		defer rdb.Close()
		deps.RDB = rdb
	}

	app, err := initializeApp(cfg, deps, errorLog, infoLog)
	if err != nil {
		return err
	}

	origins := cfg.Cors.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	handler, err := app.routes()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         addr,
		ErrorLog:     errorLog,
		Handler:      addSecurityHeaders(c.Handler(handler)),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	infoLog.Printf("Starting server on %s", addr)
	return srv.ListenAndServe()
}
