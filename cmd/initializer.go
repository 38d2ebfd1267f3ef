package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"presenceBack/internal/attendance"
	"presenceBack/internal/config"
	"presenceBack/utils"
)

type application struct {
	errorLog   *log.Logger
	infoLog    *log.Logger
	tokens     *utils.Manager
	attendance *attendance.AttendanceDeps
}

func initializeApp(cfg config.Config, deps *attendance.AttendanceDeps, errorLog *log.Logger, infoLog *log.Logger) (*application, error) {
	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &application{
		errorLog:   errorLog,
		infoLog:    infoLog,
		tokens:     tokens,
		attendance: deps,
	}, nil
}

// logAdapter exposes the application loggers through the module Logger interface.
type logAdapter struct {
	info *log.Logger
	err  *log.Logger
}

func (l logAdapter) Infof(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l logAdapter) Errorf(format string, args ...interface{}) {
	l.err.Output(2, fmt.Sprintf(format, args...))
}

func openDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Printf("Successfully connected to %s database", driver)
	return db, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
