package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"radiography-shield/pkg/api"
	"radiography-shield/pkg/database"
	"radiography-shield/pkg/exposure"
	"radiography-shield/pkg/materials"
)

// CompileVersion is set with -ldflags "-X main.CompileVersion=...".
var CompileVersion = "dev"

// .env is read before the flags are declared so SHIELD_* variables can
// supply defaults; explicit flags still win.
var _ = godotenv.Load()

var domain = flag.String("domain", envString("SHIELD_DOMAIN", ""), "Use 80 and 443 ports. Automatic HTTPS cert via Let's Encrypt.")
var dbType = flag.String("db-type", envString("SHIELD_DB_TYPE", "sqlite"), "Type of the database driver: sqlite, chai, genji, duckdb, or pgx (postgresql)")
var dbPath = flag.String("db-path", envString("SHIELD_DB_PATH", ""), "Path to the database file (file engines; defaults to the current folder)")
var dbConn = flag.String("db-conn", envString("SHIELD_DB_CONN", ""), "Full PostgreSQL DSN; overrides the -db-host style flags")
var dbHost = flag.String("db-host", envString("SHIELD_DB_HOST", "127.0.0.1"), "Database host (applicable for pgx driver)")
var dbPort = flag.Int("db-port", envInt("SHIELD_DB_PORT", 5432), "Database port (applicable for pgx driver)")
var dbUser = flag.String("db-user", envString("SHIELD_DB_USER", "postgres"), "Database user (applicable for pgx driver)")
var dbPass = flag.String("db-pass", envString("SHIELD_DB_PASS", ""), "Database password (applicable for pgx driver)")
var dbName = flag.String("db-name", envString("SHIELD_DB_NAME", "RadiographyShield"), "Database name (applicable for pgx driver)")
var pgSSLMode = flag.String("pg-ssl-mode", envString("SHIELD_PG_SSL_MODE", "prefer"), "PostgreSQL SSL mode: disable, allow, prefer, require, verify-ca, or verify-full")
var port = flag.Int("port", envInt("SHIELD_PORT", 8766), "Port for running the server")
var cacheSize = flag.Int("cache-size", envInt("SHIELD_CACHE_SIZE", 256), "Number of users whose custom materials stay cached")
var renderTTL = flag.Duration("render-ttl", envDuration("SHIELD_RENDER_TTL", 5*time.Minute), "How long rendered workbooks and QR codes are reused (0 disables)")
var version = flag.Bool("version", false, "Show the application version")

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("radiography-shield version %s\n", CompileVersion)
		return
	}

	if *domain != "" && runtime.GOOS != "windows" && os.Geteuid() != 0 {
		log.Println("⚠  Binding to :80 / :443 requires super-user rights; run with sudo or as root.")
	}

	dbCfg := database.Config{
		DBType:    *dbType,
		DBPath:    *dbPath,
		DBConn:    *dbConn,
		DBHost:    *dbHost,
		DBPort:    *dbPort,
		DBUser:    *dbUser,
		DBPass:    *dbPass,
		DBName:    *dbName,
		PGSSLMode: *pgSSLMode,
		Port:      *port,
	}
	db, err := database.NewDatabase(dbCfg)
	if err != nil {
		log.Fatalf("DB init: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schemaCtx, cancelSchema := context.WithTimeout(ctx, 30*time.Second)
	err = db.InitSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		log.Fatalf("DB schema: %v", err)
	}

	log.Printf("⏳ background index build scheduled (engine=%s)", db.Driver)
	db.EnsureIndexesAsync(ctx, log.Printf)

	catalog, err := materials.NewCatalog(db, *cacheSize, log.Printf)
	if err != nil {
		log.Fatalf("material catalog: %v", err)
	}
	timers := exposure.NewTimers(nil)
	defer timers.Close()
	renders := api.NewRenderCache(*renderTTL, 0)
	defer renders.Close()

	handler := api.NewHandler(catalog, db, timers, log.Printf)
	handler.Renders = renders
	handler.Links = db

	mux := http.NewServeMux()
	handler.Register(mux)
	rootHandler := withServerHeader(mux)

	if *domain != "" {
		go serveWithDomain(*domain, rootHandler)
	} else {
		addr := fmt.Sprintf(":%d", *port)
		srv := &http.Server{Addr: addr, Handler: rootHandler, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.Printf("HTTP server ➜ http://localhost%s/api", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP shutdown: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Printf("shutting down")
}
