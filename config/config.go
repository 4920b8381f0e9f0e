package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/LenBanana/DreckFoods/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port       string
	LogLevel   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	JWTSecret  string
	DevRoutes  bool

	ScraperBaseURL        string
	ScraperUserAgent      string
	ScraperWorkers        int
	ScraperRetries        int
	ScraperTimeoutSeconds int

	SearchRefreshToken string
	MaxSearchResults   int
	ImportBatchSize    int
}

var App *Config
var DB *gorm.DB

// Load reads config.yml when present, otherwise falls back to
// environment variables (a .env file is picked up first).
func Load() *Config {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Fatal error reading config file: %v", err)
		}
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "")
	viper.SetDefault("db.name", "fooddb")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("dev.routes", false)
	viper.SetDefault("scraper.base_url", "https://fddb.info")
	viper.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; FoodDbBot/1.0)")
	viper.SetDefault("scraper.workers", 4)
	viper.SetDefault("scraper.retries", 3)
	viper.SetDefault("scraper.timeout_seconds", 30)
	viper.SetDefault("search.refresh_token", "!refresh")
	viper.SetDefault("search.max_results", 10000)
	viper.SetDefault("import.batch_size", 1000)

	App = &Config{
		Port:       viper.GetString("port"),
		LogLevel:   viper.GetString("log.level"),
		DBHost:     viper.GetString("db.host"),
		DBUser:     viper.GetString("db.user"),
		DBPassword: viper.GetString("db.password"),
		DBName:     viper.GetString("db.name"),
		DBPort:     viper.GetString("db.port"),
		JWTSecret:  viper.GetString("jwt.secret"),
		DevRoutes:  viper.GetBool("dev.routes"),

		ScraperBaseURL:        viper.GetString("scraper.base_url"),
		ScraperUserAgent:      viper.GetString("scraper.user_agent"),
		ScraperWorkers:        viper.GetInt("scraper.workers"),
		ScraperRetries:        viper.GetInt("scraper.retries"),
		ScraperTimeoutSeconds: viper.GetInt("scraper.timeout_seconds"),

		SearchRefreshToken: viper.GetString("search.refresh_token"),
		MaxSearchResults:   viper.GetInt("search.max_results"),
		ImportBatchSize:    viper.GetInt("import.batch_size"),
	}
	return App
}

func InitDB() {
	if App == nil {
		Load()
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		App.DBHost,
		App.DBUser,
		App.DBPassword,
		App.DBName,
		App.DBPort,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.FoodItem{},
		&models.FoodNutrition{},
		&models.FoodEntry{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
}
