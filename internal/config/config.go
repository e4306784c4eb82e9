package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strings" // strings normalises environment names
    "time"    // time parses timeouts
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional integrations (SMTP, reCAPTCHA, RabbitMQ)
// stay disabled when their variables are empty.
type Config struct {
    Env        string // application environment (e.g. "dev", "production")
    Port       string // HTTP port to listen on
    DBUser     string // database username
    DBPass     string // database password (optional)
    DBHost     string // database host address
    DBPort     string // database port number
    DBName     string // database name
    JWTSecret  string // secret used to sign session tokens; required
    BcryptCost int    // bcrypt cost for password hashing

    PublicBaseURL string // absolute site URL used for links in notification emails
    RabbitMQURL   string // AMQP URL for inquiry events; empty disables publishing

    Captcha CaptchaConfig
    SMTP    SMTPConfig
    Storage StorageConfig
    Log     LogConfig
}

// CaptchaConfig configures reCAPTCHA verification.  An empty SecretKey puts
// intake in degraded mode where the CAPTCHA step is skipped.
type CaptchaConfig struct {
    SecretKey string
    VerifyURL string
    Timeout   time.Duration
}

// SMTPConfig configures the operator notification mailer.
type SMTPConfig struct {
    Host       string
    Port       int
    User       string
    Pass       string
    From       string
    NotifyTo   string // operator address receiving inquiry summaries
    Timeout    time.Duration
    MaxRetries int
}

// Enabled reports whether enough is configured to send mail.
func (s SMTPConfig) Enabled() bool {
    return s.Host != "" && s.User != "" && s.Pass != "" && s.NotifyTo != ""
}

// StorageConfig configures the S3-compatible blob store holding uploads.
type StorageConfig struct {
    Endpoint  string
    AccessKey string
    SecretKey string
    UseSSL    bool
    Region    string
}

// LogConfig configures the structured logger.
type LogConfig struct {
    Level string
    File  string // optional rotating log file in addition to stdout
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  JWT_SECRET has no
// fallback: a missing secret stops the process at startup.
func Load() Config {
    cfg := Config{
        Env:        must("APP_ENV"),               // environment (dev/test/production)
        Port:       must("APP_PORT"),              // port to bind the HTTP server
        DBUser:     must("DB_USER"),               // database user
        DBPass:     os.Getenv("DB_PASS"),          // database password (empty allowed)
        DBHost:     must("DB_HOST"),               // database host
        DBPort:     must("DB_PORT"),               // database port
        DBName:     must("DB_NAME"),               // database name
        JWTSecret:  must("JWT_SECRET"),            // secret used for signing session tokens
        BcryptCost: envInt("BCRYPT_COST", 10),     // bcrypt cost factor

        PublicBaseURL: strings.TrimRight(envStr("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
        RabbitMQURL:   firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
    }
    cfg.Captcha = CaptchaConfig{
        SecretKey: os.Getenv("RECAPTCHA_SECRET_KEY"),
        VerifyURL: envStr("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
        Timeout:   envDur("HTTP_CLIENT_TIMEOUT", 5*time.Second),
    }
    smtpUser := os.Getenv("SMTP_USER")
    cfg.SMTP = SMTPConfig{
        Host:       os.Getenv("SMTP_HOST"),
        Port:       envInt("SMTP_PORT", 587),
        User:       smtpUser,
        Pass:       os.Getenv("SMTP_PASS"),
        From:       envStr("SMTP_FROM", smtpUser),
        NotifyTo:   envStr("NOTIFY_EMAIL", smtpUser),
        Timeout:    envDur("MAIL_TIMEOUT", 10*time.Second),
        MaxRetries: envInt("MAIL_MAX_RETRIES", 3),
    }
    cfg.Storage = StorageConfig{
        Endpoint:  envStr("S3_ENDPOINT", "localhost:9000"),
        AccessKey: os.Getenv("S3_ACCESS_KEY"),
        SecretKey: os.Getenv("S3_SECRET_KEY"),
        UseSSL:    envBool("S3_USE_SSL", false),
        Region:    envStr("S3_REGION", "us-east-1"),
    }
    cfg.Log = LogConfig{
        Level: envStr("LOG_LEVEL", "info"),
        File:  os.Getenv("LOG_FILE"),
    }
    return cfg
}

// IsProduction reports whether the process runs with a production posture.
// Error details are hidden and a missing CAPTCHA secret is logged loudly.
func (c Config) IsProduction() bool {
    switch strings.ToLower(c.Env) {
    case "prod", "production":
        return true
    }
    return false
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if v != "" {
            return v
        }
    }
    return ""
}
