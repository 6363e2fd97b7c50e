package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "WEEKSTATUS_"

var ErrMissingSetting = errors.New("required setting is missing")

type Application struct {
	Host      string    `koanf:"host"`
	Telegram  Telegram  `koanf:"telegram"`
	Database  Database  `koanf:"db"`
	Redis     Redis     `koanf:"redis"`
	Week      Week      `koanf:"week"`
	Broadcast Broadcast `koanf:"broadcast"`
}

type Telegram struct {
	Token         string `koanf:"token"`
	AdminChatId   int64  `koanf:"adminchatid"`
	WebhookUrl    string `koanf:"webhookurl"`
	WebhookSecret string `koanf:"webhooksecret"`
	// NotifyOnStartup sends the bot identity to the admin chat once the server listens.
	NotifyOnStartup bool `koanf:"notifyonstartup"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Redis struct {
	Addr string `koanf:"addr"`
	Pass string `koanf:"pass"`
	DB   int    `koanf:"db"`
}

// Week holds the anchor of the odd/even sequence. ReferenceDate is a Persian date, e.g. "1403/11/20".
type Week struct {
	ReferenceDate   string `koanf:"referencedate"`
	ReferenceParity string `koanf:"referenceparity"`
	Timezone        string `koanf:"timezone"`
}

type Broadcast struct {
	BatchSize  int           `koanf:"batchsize"`
	BatchDelay time.Duration `koanf:"batchdelay"`
	StateTTL   time.Duration `koanf:"statettl"`
}

func defaults() Application {
	return Application{
		Host: ":8181",
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "weekstatus",
			Pass:   "",
			Name:   "weekstatus",
			Schema: "weekstatus",
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Week: Week{
			ReferenceDate:   "1403/11/20",
			ReferenceParity: "odd",
			Timezone:        "Asia/Tehran",
		},
		Broadcast: Broadcast{
			BatchSize:  25,
			BatchDelay: 1100 * time.Millisecond,
			StateTTL:   15 * time.Minute,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if err := app.validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (a Application) validate() error {
	if a.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram.token (%sTELEGRAM_TOKEN)", ErrMissingSetting, envPrefix)
	}
	if a.Telegram.AdminChatId == 0 {
		return fmt.Errorf("%w: telegram.adminchatid (%sTELEGRAM_ADMINCHATID)", ErrMissingSetting, envPrefix)
	}
	if a.Broadcast.BatchSize <= 0 {
		return fmt.Errorf("broadcast.batchsize must be positive, got %d", a.Broadcast.BatchSize)
	}
	return nil
}

// Location resolves the configured time zone used for the civil "today".
func (w Week) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", w.Timezone, err)
	}
	return loc, nil
}
