package config

import (
	"flag"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultServerAddress      = ":8080"
	defaultDatabaseDSN        = ""
	defaultLogLevel           = "debug"
	defaultTokenKey           = "f53ac685bbceebd75043e6be2e06ee07"
	defaultDBMaxConns         = 10
	defaultDBMinConns         = 0
	defaultPaymentTimeout     = 10 * time.Second
	defaultCashfreeBaseURL    = "https://sandbox.cashfree.com"
	defaultPhonePeBaseURL     = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	defaultPaymentRedirectURL = ""
	defaultPaymentCallbackURL = ""
	defaultExpoPushURL        = "https://exp.host/--/api/v2/push/send"
	defaultCancelWindow       = time.Minute
	defaultReconcileInterval  = 30 * time.Second
)

type Config struct {
	ServerAddr         string
	DatabaseDSN        string
	LogLevel           string
	TokenKey           string
	DBMaxConns         int
	DBMinConns         int
	PaymentTimeout     time.Duration
	CashfreeBaseURL    string
	PhonePeBaseURL     string
	PaymentRedirectURL string
	PaymentCallbackURL string
	ExpoPushURL        string
	CancelWindow       time.Duration
	ReconcileInterval  time.Duration
}

// env mirrors Config; zero values mean the variable is not set.
type env struct {
	ServerAddr         string        `envconfig:"RUN_ADDRESS"`
	DatabaseDSN        string        `envconfig:"DATABASE_URI"`
	LogLevel           string        `envconfig:"LOG_LEVEL"`
	TokenKey           string        `envconfig:"TOKEN_KEY"`
	DBMaxConns         int           `envconfig:"DB_MAX_CONNECTIONS"`
	DBMinConns         int           `envconfig:"DB_MIN_CONNECTIONS"`
	PaymentTimeout     time.Duration `envconfig:"PAYMENT_TIMEOUT"`
	CashfreeBaseURL    string        `envconfig:"CASHFREE_BASE_URL"`
	PhonePeBaseURL     string        `envconfig:"PHONEPE_BASE_URL"`
	PaymentRedirectURL string        `envconfig:"PAYMENT_REDIRECT_URL"`
	PaymentCallbackURL string        `envconfig:"PAYMENT_CALLBACK_URL"`
	ExpoPushURL        string        `envconfig:"EXPO_PUSH_URL"`
	CancelWindow       time.Duration `envconfig:"CANCEL_WINDOW"`
	ReconcileInterval  time.Duration `envconfig:"RECONCILE_INTERVAL"`
}

var (
	once      sync.Once
	singleton *Config
	loadErr   error
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "database DSN")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
		flag.StringVar(&cfg.TokenKey, "k", defaultTokenKey, "hex encoded token signing key")
		flag.IntVar(&cfg.DBMaxConns, "db-max-conns", defaultDBMaxConns, "max database connections")
		flag.IntVar(&cfg.DBMinConns, "db-min-conns", defaultDBMinConns, "min database connections")
		flag.DurationVar(&cfg.PaymentTimeout, "payment-timeout", defaultPaymentTimeout, "payment provider request timeout")
		flag.StringVar(&cfg.CashfreeBaseURL, "cashfree-url", defaultCashfreeBaseURL, "cashfree api base url")
		flag.StringVar(&cfg.PhonePeBaseURL, "phonepe-url", defaultPhonePeBaseURL, "phonepe api base url")
		flag.StringVar(&cfg.PaymentRedirectURL, "payment-redirect-url", defaultPaymentRedirectURL, "url the payer returns to")
		flag.StringVar(&cfg.PaymentCallbackURL, "payment-callback-url", defaultPaymentCallbackURL, "provider server callback url")
		flag.StringVar(&cfg.ExpoPushURL, "expo-push-url", defaultExpoPushURL, "expo push api url")
		flag.DurationVar(&cfg.CancelWindow, "cancel-window", defaultCancelWindow, "user cancellation window")
		flag.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", defaultReconcileInterval, "pending payment reconcile interval")

		flag.Parse()

		// if environment variable is set, then using it
		var e env
		if err := envconfig.Process("", &e); err != nil {
			loadErr = err
			return
		}
		e.apply(&cfg)

		singleton = &cfg
	})

	return singleton, loadErr
}

func (e env) apply(cfg *Config) {
	setString(&cfg.ServerAddr, e.ServerAddr)
	setString(&cfg.DatabaseDSN, e.DatabaseDSN)
	setString(&cfg.LogLevel, e.LogLevel)
	setString(&cfg.TokenKey, e.TokenKey)
	setString(&cfg.CashfreeBaseURL, e.CashfreeBaseURL)
	setString(&cfg.PhonePeBaseURL, e.PhonePeBaseURL)
	setString(&cfg.PaymentRedirectURL, e.PaymentRedirectURL)
	setString(&cfg.PaymentCallbackURL, e.PaymentCallbackURL)
	setString(&cfg.ExpoPushURL, e.ExpoPushURL)

	if e.DBMaxConns > 0 {
		cfg.DBMaxConns = e.DBMaxConns
	}
	if e.DBMinConns > 0 {
		cfg.DBMinConns = e.DBMinConns
	}
	if e.PaymentTimeout > 0 {
		cfg.PaymentTimeout = e.PaymentTimeout
	}
	if e.CancelWindow > 0 {
		cfg.CancelWindow = e.CancelWindow
	}
	if e.ReconcileInterval > 0 {
		cfg.ReconcileInterval = e.ReconcileInterval
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
