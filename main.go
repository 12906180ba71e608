package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"trade-ledger/internal/audit"
	"trade-ledger/internal/auth"
	lockapp "trade-ledger/internal/cagelock/application"
	lockrepo "trade-ledger/internal/cagelock/infrastructure/postgres"
	lockinterfaces "trade-ledger/internal/cagelock/interfaces"
	cashapp "trade-ledger/internal/cashflow/application"
	cashrepo "trade-ledger/internal/cashflow/infrastructure/postgres"
	cashinterfaces "trade-ledger/internal/cashflow/interfaces"
	docapp "trade-ledger/internal/documents/application"
	docrepo "trade-ledger/internal/documents/infrastructure/postgres"
	docinterfaces "trade-ledger/internal/documents/interfaces"
	ledgerapp "trade-ledger/internal/ledger/application"
	ledgerrepo "trade-ledger/internal/ledger/infrastructure/postgres"
	ledgerinterfaces "trade-ledger/internal/ledger/interfaces"
	"trade-ledger/internal/observability/metrics"
	reportapp "trade-ledger/internal/reports/application"
	reportinterfaces "trade-ledger/internal/reports/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	ledgerRepo := ledgerrepo.NewLedgerRepository(db)
	ledgerService, err := ledgerapp.NewService(ledgerRepo)
	if err != nil {
		logger.Fatalf("ledger service error: %v", err)
	}

	accountRepo := cashrepo.NewAccountRepository(db)
	cashService, err := cashapp.NewService(accountRepo, accountRepo, docapp.UUIDGenerator{}, cashapp.SystemClock{})
	if err != nil {
		logger.Fatalf("cash flow service error: %v", err)
	}

	lockManager, err := lockapp.NewManager(lockrepo.NewLockRepository(db), lockapp.SystemClock{})
	if err != nil {
		logger.Fatalf("lock manager error: %v", err)
	}

	var publisher docapp.Publisher = docinterfaces.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := docinterfaces.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	documentStore := docrepo.NewDocumentStore(db)
	issueService, err := docapp.NewIssueService(documentStore, documentStore, lockManager, publisher, nil, nil, logger, cfg.InvoiceVersion)
	if err != nil {
		logger.Fatalf("issue service error: %v", err)
	}

	reportCfg, err := reportapp.LoadConfig()
	if err != nil {
		logger.Fatalf("reports config error: %v", err)
	}
	reportService, err := reportapp.NewProfitLossService(documentStore, ledgerService, cashService, reportapp.SystemClock{}, reportCfg)
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}

	documentHandler, err := docinterfaces.NewDocumentHandler(issueService, documentStore, auditRepo)
	if err != nil {
		logger.Fatalf("document handler error: %v", err)
	}
	ledgerHandler, err := ledgerinterfaces.NewLedgerHandler(ledgerService)
	if err != nil {
		logger.Fatalf("ledger handler error: %v", err)
	}
	cashHandler, err := cashinterfaces.NewCashFlowHandler(cashService, auditRepo)
	if err != nil {
		logger.Fatalf("cash flow handler error: %v", err)
	}
	lockHandler, err := lockinterfaces.NewLockHandler(lockManager)
	if err != nil {
		logger.Fatalf("lock handler error: %v", err)
	}
	reportHandler, err := reportinterfaces.NewReportHandler(reportService)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/challans", documentHandler)
	mux.Handle("/api/v1/invoices", documentHandler)
	mux.Handle("/api/v1/invoices/", documentHandler)
	mux.Handle("/api/v1/cages/available", documentHandler)
	mux.Handle("/api/v1/cages/locks", lockHandler)
	mux.Handle("/api/v1/ledger", ledgerHandler)
	mux.Handle("/api/v1/entities", ledgerHandler)
	mux.Handle("/api/v1/entities/balance", ledgerHandler)
	mux.Handle("/api/v1/cashflow", cashHandler)
	mux.Handle("/api/v1/cashflow/adjust", cashHandler)
	mux.Handle("/api/v1/exports/ledger.csv", ledgerinterfaces.NewExportLedgerCSVHandler(ledgerService))
	mux.Handle("/api/v1/exports/ledger.xlsx", ledgerinterfaces.NewExportLedgerXLSXHandler(ledgerService, docinterfaces.BuildLedgerXLSX))
	mux.Handle("/api/v1/reports/profit-loss", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL    string
	HTTPAddr       string
	JWTSecret      string
	InvoiceVersion int
	KafkaBrokers   []string
	KafkaTopic     string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		InvoiceVersion: getenvIntDefault("INVOICE_VERSION", 1),
		KafkaTopic:     getenvDefault("KAFKA_TOPIC", "trade-ledger.documents"),
	}
	if brokers := getenvDefault("KAFKA_BROKERS", ""); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
