package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "villagefit/internal/adapters/email"
	web "villagefit/internal/adapters/http"
	"villagefit/internal/adapters/storage"
	accountStore "villagefit/internal/adapters/storage/account"
	bookingStore "villagefit/internal/adapters/storage/booking"
	classStore "villagefit/internal/adapters/storage/class"
	customerStore "villagefit/internal/adapters/storage/customer"
	outboxStorePkg "villagefit/internal/adapters/storage/outbox"
	sessionPassStore "villagefit/internal/adapters/storage/sessionpass"
	accountDomain "villagefit/internal/domain/account"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Open database with WAL mode, foreign keys, and busy timeout.
	dbPath := envOrDefault("VILLAGEFIT_DB", "villagefit.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Wrap DB so slow queries get logged.
	timedDB := storage.NewTimedDB(db)

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:  acctStore,
		ClassStore:    classStore.NewSQLiteStore(timedDB),
		BookingStore:  bookingStore.NewSQLiteStore(timedDB),
		CustomerStore: customerStore.NewSQLiteStore(timedDB),
		PassStore:     sessionPassStore.NewSQLiteStore(timedDB),
		OutboxStore:   outboxStorePkg.NewSQLiteStore(timedDB),
	}

	// Seed the first admin account if none exist yet.
	if err := seedAdmin(context.Background(), acctStore); err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}

	// Configure email sender
	resendKey := os.Getenv("VILLAGEFIT_RESEND_API_KEY")
	emailFrom := envOrDefault("VILLAGEFIT_EMAIL_FROM", "Village Fitness <noreply@villagefit.co.nz>")
	emailReply := envOrDefault("VILLAGEFIT_REPLY_TO", "office@villagefit.co.nz")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), emailFrom, emailReply)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom, emailReply)
		if os.Getenv("VILLAGEFIT_ENV") == "production" {
			log.Println("WARNING: VILLAGEFIT_RESEND_API_KEY is not set, email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set VILLAGEFIT_RESEND_API_KEY for real delivery)")
		}
	}

	web.SetBaseURL(envOrDefault("VILLAGEFIT_BASE_URL", "http://localhost:8080"))

	mux := web.NewMux(stores)

	addr := envOrDefault("VILLAGEFIT_ADDR", ":8080")
	log.Printf("VillageFit %s starting on %s (env=%s)", version, addr, envOrDefault("VILLAGEFIT_ENV", "development"))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// seedAdmin creates the initial admin login when the accounts table is
// empty. Credentials come from the environment so fresh installs are
// never left with a known default password.
func seedAdmin(ctx context.Context, store accountStore.Store) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("VILLAGEFIT_ADMIN_EMAIL")
	password := os.Getenv("VILLAGEFIT_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("WARNING: no accounts exist and VILLAGEFIT_ADMIN_EMAIL/VILLAGEFIT_ADMIN_PASSWORD are not set, admin login unavailable")
		return nil
	}

	acct := accountDomain.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      accountDomain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := acct.SetPassword(password); err != nil {
		return err
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := store.Save(ctx, acct); err != nil {
		return err
	}
	log.Printf("Seeded admin account %s", email)
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
