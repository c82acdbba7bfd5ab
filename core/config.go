package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AdmissionConfig struct {
		// MaxOpenPropositions caps the number of in-progress propositions per applicant.
		MaxOpenPropositions int
		// EctsThresholdYear is the first academic year for which ECTS credits are
		// tracked in Belgian institutions.
		EctsThresholdYear int
	}

	TaskConfig struct {
		PollInterval time.Duration
		BatchSize    int
		MaxAttempts  int
	}

	Config struct {
		Env      string // DEV (default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		Build    string
		AppName  string

		SecretKey          string
		FrontendBaseURL    string
		WorkDir            string
		JWTExpirationDelta time.Duration
		defaultFromEmail   string
		SendgridApiKey     string
		RollbarToken       string

		Server    ServerConfig
		Database  DatabaseConfig
		Admission AdmissionConfig
		Task      TaskConfig
	}
)

func (c ServerConfig) Address() string   { return c.Host + ":" + c.Port }
func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// Conf is the app-wide configuration, loaded once at startup.
var Conf *Config

func init() {
	Conf = NewConfig()
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (in increasing precedence).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Udahili")
	conf.SetDefault("secretKey", "w$3r)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverShutdownTimeout", 20*time.Second)
	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "udahili")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseDisableTLS", true)
	conf.SetDefault("maxOpenPropositions", 5)
	conf.SetDefault("ectsThresholdYear", 2004)
	conf.SetDefault("taskPollInterval", 30*time.Second)
	conf.SetDefault("taskBatchSize", 20)
	conf.SetDefault("taskMaxAttempts", 3)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:                env,
		Debug:              conf.GetBool("debug"),
		TestMode:           env == "TEST",
		Build:              conf.GetString("build"),
		AppName:            conf.GetString("appName"),
		SecretKey:          conf.GetString("secretKey"),
		FrontendBaseURL:    conf.GetString("frontendBaseURL"),
		WorkDir:            wd,
		JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
		defaultFromEmail:   conf.GetString("defaultFromEmail"),
		SendgridApiKey:     conf.GetString("sendgridApiKey"),
		RollbarToken:       conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			Port:            conf.GetString("serverPort"),
			ShutdownTimeout: conf.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Name:          conf.GetString("databaseName"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
		},
		Admission: AdmissionConfig{
			MaxOpenPropositions: conf.GetInt("maxOpenPropositions"),
			EctsThresholdYear:   conf.GetInt("ectsThresholdYear"),
		},
		Task: TaskConfig{
			PollInterval: conf.GetDuration("taskPollInterval"),
			BatchSize:    conf.GetInt("taskBatchSize"),
			MaxAttempts:  conf.GetInt("taskMaxAttempts"),
		},
	}
}
