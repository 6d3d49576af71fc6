package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"
)

// Snapshot drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
)

func init() {
	// sqlx does not know the modernc and go-ora driver names.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
	sqlx.BindDriver(DriverOracle, sqlx.NAMED)
}

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			username, password, host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// OracleConfig holds Oracle connection settings for snapshot exports.
type OracleConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
}

// DSN returns the go-ora connection URL.
func (c OracleConfig) DSN() string {
	return dsn(c.Username, c.Password, c.Host, c.Port, c.Service, c.WalletLocation)
}

// LoadOracleConfig reads the DB_* variables. The dotenv files are expected to
// be loaded already.
func LoadOracleConfig() OracleConfig {
	return OracleConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvOrDefault("DB_PORT", "1521"),
		Service:        getEnvOrDefault("DB_SERVICE", "XE"),
		Username:       getEnvOrDefault("DB_USERNAME", ""),
		Password:       getEnvOrDefault("DB_PASSWORD", ""),
		WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", ""),
	}
}

// Open connects to a snapshot target and pings it.
func Open(ctx context.Context, driver, dataSource string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported driver %q (want sqlite, postgres or oracle)", driver)
	}
	if driver == DriverOracle && dataSource == "" {
		dataSource = LoadOracleConfig().DSN()
	}
	if dataSource == "" {
		return nil, fmt.Errorf("no data source for driver %s", driver)
	}

	db, err := sqlx.Open(driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
