package core

import (
	"fmt"
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
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		Server struct {
			Host string
			Port int
		}

		Database struct {
			Engine        string
			Name          string
			User          string
			Password      string
			AdminUser     string
			AdminPassword string
			Host          string
			Port          int
			DisableTLS    bool
		}

		Export ExportConfig
	}

	// ExportConfig bounds the export pipeline's work.
	ExportConfig struct {
		MaxRows        int
		MaxExcelSizeMB int
		MaxPDFSizeMB   int
		Timeout        time.Duration
	}
)

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) DatabaseAddress() string {
	return fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// NewConfig loads the app configuration from the environment.
// A `config/.env.<env>` file is loaded first if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Escolar")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "escolar")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("exportMaxRows", 10000)
	v.SetDefault("exportMaxExcelSizeMB", 50)
	v.SetDefault("exportMaxPDFSizeMB", 25)
	v.SetDefault("exportTimeout", 45*time.Second)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Port = v.GetInt("serverPort")
	conf.Database.Engine = v.GetString("databaseEngine")
	conf.Database.Name = v.GetString("databaseName")
	conf.Database.User = v.GetString("databaseUser")
	conf.Database.Password = v.GetString("databasePassword")
	conf.Database.AdminUser = v.GetString("databaseAdminUser")
	conf.Database.AdminPassword = v.GetString("databaseAdminPassword")
	conf.Database.Host = v.GetString("databaseHost")
	conf.Database.Port = v.GetInt("databasePort")
	conf.Database.DisableTLS = v.GetBool("databaseDisableTLS")
	conf.Export.MaxRows = v.GetInt("exportMaxRows")
	conf.Export.MaxExcelSizeMB = v.GetInt("exportMaxExcelSizeMB")
	conf.Export.MaxPDFSizeMB = v.GetInt("exportMaxPDFSizeMB")
	conf.Export.Timeout = v.GetDuration("exportTimeout")
	return conf
}
