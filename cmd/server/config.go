package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/taskquest/internal/server"
)

// Environment variables read at startup:
//
//	PORT                  listen port (default 8080)
//	DB_PATH               SQLite file (default data/taskquest.db)
//	TEMPLATE_DIR          HTML templates (default web/templates)
//	STATIC_DIR            CSS and icons (default web/static)
//	JWT_SECRET            session signing key, required, 16+ bytes
//	SESSION_TTL           session length as a Go duration (default 168h)
//	APP_TIMEZONE          IANA zone for streak days and task dates (default UTC)
//	COOKIE_SECURE         "true" when served over HTTPS
//	TRUST_PROXY           "true" behind a reverse proxy that sets X-Forwarded-For
//	GITHUB_CLIENT_ID      GitHub sign-in, optional
//	GITHUB_CLIENT_SECRET
//	GITHUB_CALLBACK_URL   default http://localhost:<PORT>/auth/github/callback
//
// LOG_LEVEL is read separately, before anything can fail.
const (
	defaultPort   = 8080
	defaultDBPath = "data/taskquest.db"
)

// loadConfig builds the server configuration from getenv, which is
// os.Getenv in production and a map lookup in tests.
func loadConfig(getenv func(string) string) (server.Config, error) {
	cfg := server.Config{
		Port:               defaultPort,
		DBPath:             orDefault(getenv("DB_PATH"), defaultDBPath),
		JWTSecret:          getenv("JWT_SECRET"),
		GitHubClientID:     getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: getenv("GITHUB_CLIENT_SECRET"),
		Location:           time.UTC,
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("PORT: invalid value %q", v)
		}
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required (try: openssl rand -hex 32)")
	}

	if v := getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return cfg, fmt.Errorf("SESSION_TTL: invalid duration %q", v)
		}
		cfg.SessionTTL = ttl
	}

	if v := getenv("APP_TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return cfg, fmt.Errorf("APP_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("COOKIE_SECURE: invalid boolean %q", v)
		}
		cfg.SecureCookies = secure
	}

	if v := getenv("TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("TRUST_PROXY: invalid boolean %q", v)
		}
		cfg.TrustProxy = trust
	}

	var err error
	if cfg.TemplateDir, err = filepath.Abs(orDefault(getenv("TEMPLATE_DIR"), "web/templates")); err != nil {
		return cfg, fmt.Errorf("TEMPLATE_DIR: %w", err)
	}
	if cfg.StaticDir, err = filepath.Abs(orDefault(getenv("STATIC_DIR"), "web/static")); err != nil {
		return cfg, fmt.Errorf("STATIC_DIR: %w", err)
	}

	cfg.GitHubCallbackURL = orDefault(getenv("GITHUB_CALLBACK_URL"),
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
