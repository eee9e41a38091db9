package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type db struct {
	host string
	port string
	user string
	pass string
	name string
}

func NewDB(cfg *Config) *db {
	return &db{
		host: cfg.DBHost,
		port: cfg.DBPort,
		user: cfg.DBUser,
		pass: cfg.DBPass,
		name: cfg.DBName,
	}
}

func (d *db) GetConn() (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", d.host, d.port, d.user, d.pass, d.name))
	if err != nil {
		return nil, fmt.Errorf("error with sql.Open in db.GetConn: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Minute * 3)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(30)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error with sqlDB.Ping in db.GetConn: %w", err)
	}
	return sqlDB, nil
}
