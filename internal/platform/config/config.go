package config

import (
	"time"

	"github.com/pkg/errors"
)

// ErrBadPersistentFlag is returned when the persistent disk flag is not an
// exact "true" or "false". Anything else is a fatal misconfiguration.
var ErrBadPersistentFlag = errors.New("DB_USE_PERSISTENT_DISK must be exactly \"true\" or \"false\"")

// Config is used to hold all runtime configuration.
type Config struct {
	Env string `default:"development" envconfig:"ENV" json:"ENV"`
	Web struct {
		RootURL         string        `envconfig:"ROOT_URL" json:"ROOT_URL"`
		APIHost         string        `default:"0.0.0.0:3001" envconfig:"API_HOST" json:"API_HOST"`
		ReadTimeout     time.Duration `default:"5s" envconfig:"READ_TIMEOUT" json:"READ_TIMEOUT"`
		WriteTimeout    time.Duration `default:"5s" envconfig:"WRITE_TIMEOUT" json:"WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `default:"5s" envconfig:"SHUTDOWN_TIMEOUT" json:"SHUTDOWN_TIMEOUT"`
	}
	Db struct {
		Driver string `default:"sqlite3" envconfig:"DB_DRIVER" json:"DB_DRIVER"`

		// UsePersistentDisk selects between the persistent disk path and the
		// local relative path. Deliberately a string so values other than
		// "true"/"false" can be rejected at startup.
		UsePersistentDisk string `default:"false" envconfig:"DB_USE_PERSISTENT_DISK" json:"DB_USE_PERSISTENT_DISK"`
		PersistentPath    string `default:"/var/data/rewards.db" envconfig:"DB_PERSISTENT_PATH" json:"DB_PERSISTENT_PATH"`
		LocalPath         string `default:"./rewards.db" envconfig:"DB_LOCAL_PATH" json:"DB_LOCAL_PATH"`
	}
	Sweep struct {
		PromoteInterval  time.Duration `default:"10m" envconfig:"SWEEP_PROMOTE_INTERVAL" json:"SWEEP_PROMOTE_INTERVAL"`
		CompleteInterval time.Duration `default:"5m" envconfig:"SWEEP_COMPLETE_INTERVAL" json:"SWEEP_COMPLETE_INTERVAL"`
		CompleteAge      time.Duration `default:"25m" envconfig:"SWEEP_COMPLETE_AGE" json:"SWEEP_COMPLETE_AGE"`
	}
}

// DatabasePath returns the database file location selected by the persistent
// disk flag.
func (c Config) DatabasePath() (string, error) {
	switch c.Db.UsePersistentDisk {
	case "true":
		return c.Db.PersistentPath, nil
	case "false":
		return c.Db.LocalPath, nil
	}

	return "", ErrBadPersistentFlag
}
