package config

import "fmt"

// PreferenceDriver selects where operator preferences are persisted.
type PreferenceDriver int

const (
	SQLite PreferenceDriver = iota + 1
	Postgres
	Redis
)

type MessageQueueDriver int

const (
	RabbitMQ MessageQueueDriver = iota + 1
)

func (d MessageQueueDriver) String() string {
	switch d {
	case RabbitMQ:
		return "rabbitmq"
	default:
		return "unknown"
	}
}

// String converts the PreferenceDriver enum to a human-readable string.
func (d PreferenceDriver) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case Redis:
		return "redis"
	}
	return "unknown"
}

// ParsePreferenceDriver is the inverse of PreferenceDriver.String.
func ParsePreferenceDriver(name string) (PreferenceDriver, error) {
	for _, d := range []PreferenceDriver{SQLite, Postgres, Redis} {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown preference driver %q", name)
}
