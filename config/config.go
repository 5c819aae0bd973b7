package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// Config es la configuración completa del bot.
type Config struct {
	Scanner  ScannerConfig  `yaml:"scanner"`
	Quotex   QuotexConfig   `yaml:"quotex"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ScannerConfig controla el loop de señales.
type ScannerConfig struct {
	OutsideWindowSeconds int    `yaml:"outside_window_seconds" validate:"gt=0"`
	AuthBackoffSeconds   int    `yaml:"auth_backoff_seconds" validate:"gt=0"`
	NoSignalSeconds      int    `yaml:"no_signal_seconds" validate:"gt=0"`
	CooldownSeconds      int    `yaml:"cooldown_seconds" validate:"gt=0"`
	CallTimeoutSeconds   int    `yaml:"call_timeout_seconds" validate:"gt=0"`
	AuthTimeoutSeconds   int    `yaml:"auth_timeout_seconds" validate:"gt=0"`
	MinPublishScore      int    `yaml:"min_publish_score" validate:"gte=70,lte=100"`
	CoarseCount          int    `yaml:"coarse_count" validate:"gte=10"`
	FineCount            int    `yaml:"fine_count" validate:"gte=2"`
	Timezone             string `yaml:"timezone"`
	// Instruments fija la lista de pares; vacía = descubrir en la plataforma.
	Instruments []string         `yaml:"instruments"`
	KillZones   []KillZoneConfig `yaml:"kill_zones" validate:"dive"`
}

// KillZoneConfig es una ventana horaria "HH:MM"–"HH:MM" en la zona configurada.
type KillZoneConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

// QuotexConfig controla la automatización del navegador.
type QuotexConfig struct {
	BaseURL       string `yaml:"base_url" validate:"url"`
	Email         string `yaml:"email"`    // QUOTEX_EMAIL
	Password      string `yaml:"password"` // QUOTEX_PASSWORD
	Headless      bool   `yaml:"headless"`
	ChromePath    string `yaml:"chrome_path"`
	SessionName   string `yaml:"session_name"`
	SessionB64    string `yaml:"-"` // SESSION_B64, solo por entorno
	WaitSeconds   int    `yaml:"wait_seconds" validate:"gt=0"`
	ScrapesPerMin int    `yaml:"scrapes_per_minute" validate:"gt=0"`
}

// TelegramConfig contiene las credenciales del bot de Telegram.
type TelegramConfig struct {
	Token   string `yaml:"token"`   // TELEGRAM_TOKEN
	ChatID  string `yaml:"chat_id"` // TELEGRAM_CHAT_ID
	BaseURL string `yaml:"base_url" validate:"url"`
}

// StorageConfig controla dónde se persiste la sesión del navegador.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint de Prometheus. Addr vacío lo desactiva.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"` // rotado con lumberjack; vacío = solo stdout
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse construye la configuración a partir de YAML ya leído.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Parse: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate comprueba rangos y formatos, incluidas las kill zones.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	if _, err := c.Calendar(); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// Location devuelve la zona horaria del calendario (Teherán por defecto).
func (c *Config) Location() (*time.Location, error) {
	if c.Scanner.Timezone == "" || c.Scanner.Timezone == domain.TehranZone {
		return domain.TehranLocation(), nil
	}
	loc, err := time.LoadLocation(c.Scanner.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Scanner.Timezone, err)
	}
	return loc, nil
}

// Calendar construye el calendario de kill zones configurado.
func (c *Config) Calendar() (domain.Calendar, error) {
	loc, err := c.Location()
	if err != nil {
		return domain.Calendar{}, err
	}
	if len(c.Scanner.KillZones) == 0 {
		cal := domain.DefaultCalendar()
		cal.Location = loc
		return cal, nil
	}

	cal := domain.Calendar{Location: loc}
	for _, kz := range c.Scanner.KillZones {
		start, err := domain.ParseTimeOfDay(kz.Start)
		if err != nil {
			return domain.Calendar{}, fmt.Errorf("kill zone %q start: %w", kz.Name, err)
		}
		end, err := domain.ParseTimeOfDay(kz.End)
		if err != nil {
			return domain.Calendar{}, fmt.Errorf("kill zone %q end: %w", kz.Name, err)
		}
		if end < start {
			return domain.Calendar{}, fmt.Errorf("kill zone %q: end %s before start %s", kz.Name, kz.End, kz.Start)
		}
		cal.Zones = append(cal.Zones, domain.KillZone{Name: kz.Name, Start: start, End: end})
	}
	return cal, nil
}

// InstrumentList devuelve los instrumentos fijados en la configuración.
func (c *Config) InstrumentList() []domain.Instrument {
	out := make([]domain.Instrument, 0, len(c.Scanner.Instruments))
	for _, s := range c.Scanner.Instruments {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, domain.Instrument(s))
		}
	}
	return out
}

// Seconds convierte un campo en segundos a time.Duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUOTEX_EMAIL"); v != "" {
		cfg.Quotex.Email = v
	}
	if v := os.Getenv("QUOTEX_PASSWORD"); v != "" {
		cfg.Quotex.Password = v
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Quotex.Headless = b
		}
	}
	if v := os.Getenv("CHROME_BIN"); v != "" {
		cfg.Quotex.ChromePath = v
	}
	if v := os.Getenv("SESSION_B64"); v != "" {
		cfg.Quotex.SessionB64 = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	s := &cfg.Scanner
	if s.OutsideWindowSeconds <= 0 {
		s.OutsideWindowSeconds = 60
	}
	if s.AuthBackoffSeconds <= 0 {
		s.AuthBackoffSeconds = 30
	}
	if s.NoSignalSeconds <= 0 {
		s.NoSignalSeconds = 30
	}
	if s.CooldownSeconds <= 0 {
		s.CooldownSeconds = 65
	}
	if s.CallTimeoutSeconds <= 0 {
		s.CallTimeoutSeconds = 45
	}
	if s.AuthTimeoutSeconds <= 0 {
		s.AuthTimeoutSeconds = 180
	}
	if s.MinPublishScore == 0 {
		s.MinPublishScore = domain.ScoreKillZone
	}
	if s.CoarseCount == 0 {
		s.CoarseCount = 50
	}
	if s.FineCount == 0 {
		s.FineCount = 30
	}
	if s.Timezone == "" {
		s.Timezone = domain.TehranZone
	}
	if cfg.Quotex.BaseURL == "" {
		cfg.Quotex.BaseURL = "https://qxbroker.com/en/trade"
	}
	if cfg.Quotex.SessionName == "" {
		cfg.Quotex.SessionName = "quotex"
	}
	if cfg.Quotex.WaitSeconds <= 0 {
		cfg.Quotex.WaitSeconds = 30
	}
	if cfg.Quotex.ScrapesPerMin <= 0 {
		cfg.Quotex.ScrapesPerMin = 30
	}
	if cfg.Telegram.BaseURL == "" {
		cfg.Telegram.BaseURL = "https://api.telegram.org"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "ictbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
