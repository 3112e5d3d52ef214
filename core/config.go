package core

import (
	"fmt"
	"log"
	"net"
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
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableCSRF     bool
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	SheetsConfig struct {
		SpreadsheetID   string
		CredentialsFile string
		SheetName       string
	}

	Config struct {
		Debug    bool
		TestMode bool
		AppName  string
		Build    string
		Env      string
		WorkDir  string

		SecretKey    string
		SessionTTL   time.Duration
		SessionStore string // inmem | postgres

		APIURL       string
		APITimeout   time.Duration
		ItemsPerPage int

		Server   ServerConfig
		Database DatabaseConfig
		Sheets   SheetsConfig

		RollbarToken     string
		SendgridApiKey   string
		ContactInbox     string
		defaultFromEmail string
	}
)

func (d DatabaseConfig) Address() string {
	return net.JoinHostPort(d.Host, d.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// NewConfig reads the configuration from the environment.
// `config/.env.<env>` is loaded first when it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Academia Murim")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "kq3v-m1ur)im$+8z=xw&tq9h(a!p)#*d5(#rf4j^$vbn2k")
	v.SetDefault("sessionTTL", 7*24*time.Hour)
	v.SetDefault("sessionStore", "inmem")
	v.SetDefault("apiURL", "http://localhost:8000/api")
	v.SetDefault("apiTimeout", 15*time.Second)
	v.SetDefault("itemsPerPage", 10)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableCSRF", false)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "murim")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("sheets.sheetName", "Alunos")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd: %v", err)
	}
	v.SetDefault("workDir", wd)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	// NEXT_PUBLIC_API_URL is accepted for the backend URL too
	_ = v.BindEnv("apiURL", env+"_API_URL", "NEXT_PUBLIC_API_URL")

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		Env:          env,
		WorkDir:      v.GetString("workDir"),
		SecretKey:    v.GetString("secretKey"),
		SessionTTL:   v.GetDuration("sessionTTL"),
		SessionStore: v.GetString("sessionStore"),
		APIURL:       strings.TrimRight(v.GetString("apiURL"), "/"),
		APITimeout:   v.GetDuration("apiTimeout"),
		ItemsPerPage: v.GetInt("itemsPerPage"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Addr:            v.GetString("server.addr"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableCSRF:     v.GetBool("server.disableCSRF"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   v.GetString("sheets.spreadsheetID"),
			CredentialsFile: v.GetString("sheets.credentialsFile"),
			SheetName:       v.GetString("sheets.sheetName"),
		},
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		ContactInbox:     v.GetString("contactInbox"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}
}

// NewTestConfig returns a Config suitable for tests, pointing at the given backend URL.
func NewTestConfig(apiURL string) *Config {
	return &Config{
		Debug:        false,
		TestMode:     true,
		AppName:      "Academia Murim",
		Build:        "test",
		Env:          "TEST",
		SecretKey:    "secret",
		SessionTTL:   time.Hour,
		SessionStore: "inmem",
		APIURL:       strings.TrimRight(apiURL, "/"),
		APITimeout:   5 * time.Second,
		ItemsPerPage: 10,
		Server: ServerConfig{
			Host:            "localhost",
			ShutdownTimeout: time.Second,
			DisableCSRF:     true,
		},
		defaultFromEmail: "noreply@localhost",
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, %s) -> %s", c.AppName, c.Env, c.Build, c.APIURL)
}
