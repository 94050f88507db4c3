package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Maximale Anzahl Treffer für Such- und Autocomplete-Endpunkte.
	ResultLimit int `envconfig:"GENES_API_RESULT_LIMIT" default:"15"`

	// Gewichtungs-Heuristik für Suchergebnisse. Die Faktoren sind bewusst
	// konfigurierbar: die Formel (2*xrefs + aliases, verdoppelt für
	// protein-coding) ist eine Annahme, keine gemessene Statistik.
	WeightXRefFactor          int `envconfig:"WEIGHT_XREF_FACTOR" default:"2"`
	WeightAliasFactor         int `envconfig:"WEIGHT_ALIAS_FACTOR" default:"1"`
	WeightProteinCodingFactor int `envconfig:"WEIGHT_PROTEIN_CODING_FACTOR" default:"2"`

	// Mindestanzahl passender Zeilen pro Organismus beim gene_info-Import.
	// Darunter wird ein falsch konfigurierter Lauf vermutet und abgebrochen.
	MinOrganismMatches int `envconfig:"MIN_ORGANISM_MATCHES" default:"10"`

	// Geplanter WormBase-Refresh. Leerer Schedule deaktiviert den Cron-Job.
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:""`
	WormBaseURL  string `envconfig:"WORMBASE_URL" default:""`
	WormBaseXRDB string `envconfig:"WORMBASE_XRDB" default:"WormBase"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
