// Package logger wraps zerolog with the teacher's service-scoped,
// optionally DB-backed logging shape: console output always, a
// best-effort async write to system_logs when a *gorm.DB is attached.
package logger

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Logger is the centralized logger for the simulation engine.
type Logger struct {
	zl       zerolog.Logger
	db       *gorm.DB
	service  string
	enableDB bool
}

// NewLogger creates a new centralized logger. levelName follows
// zerolog's level strings (debug, info, warn, error); unrecognized
// values fall back to info.
func NewLogger(service string, db *gorm.DB, levelName string) *Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("service", service).Logger()

	return &Logger{zl: zl, db: db, service: service, enableDB: db != nil}
}

func (l *Logger) Debug(message string, keyvals ...interface{}) {
	l.zl.Debug().Fields(toFields(keyvals)).Msg(message)
}

func (l *Logger) Info(message string, keyvals ...interface{}) {
	l.zl.Info().Fields(toFields(keyvals)).Msg(message)
	if l.enableDB {
		go l.logToDB("INFO", message, keyvals...)
	}
}

func (l *Logger) Warn(message string, keyvals ...interface{}) {
	l.zl.Warn().Fields(toFields(keyvals)).Msg(message)
	if l.enableDB {
		go l.logToDB("WARN", message, keyvals...)
	}
}

func (l *Logger) Error(message string, err error, keyvals ...interface{}) {
	event := l.zl.Error()
	if err != nil {
		event = event.Err(err)
		keyvals = append(keyvals, "error", err.Error())
	}
	event.Fields(toFields(keyvals)).Msg(message)
	if l.enableDB {
		go l.logToDB("ERROR", message, keyvals...)
	}
}

// LogEvent records a named structured event, e.g. a cycle outcome or
// lifecycle transition, at info level.
func (l *Logger) LogEvent(eventType string, data map[string]interface{}) {
	l.zl.Info().Str("event_type", eventType).Fields(data).Msg("event")
	if l.enableDB {
		go l.logEventToDB(eventType, data)
	}
}

func (l *Logger) logToDB(level, message string, keyvals ...interface{}) {
	if l.db == nil {
		return
	}
	fields := toFields(keyvals)
	eventJSON := ""
	if len(fields) > 0 {
		if b, err := json.Marshal(fields); err == nil {
			eventJSON = string(b)
		}
	}
	entry := SystemLog{
		Service:   l.service,
		Level:     level,
		Message:   message,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}
	if err := l.db.Create(&entry).Error; err != nil {
		l.zl.Error().Err(err).Msg("failed to write log to database")
	}
}

func (l *Logger) logEventToDB(eventType string, data map[string]interface{}) {
	if l.db == nil {
		return
	}
	eventJSON := ""
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			eventJSON = string(b)
		}
	}
	entry := SystemLog{
		Service:   l.service,
		Level:     "INFO",
		Message:   "Event: " + eventType,
		EventType: eventType,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}
	if err := l.db.Create(&entry).Error; err != nil {
		l.zl.Error().Err(err).Msg("failed to write event to database")
	}
}

func toFields(keyvals []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields[key] = keyvals[i+1]
	}
	return fields
}

// GlobalLogger is set once at startup so packages that can't take a
// constructor dependency (e.g. low-level helpers) can still log.
var GlobalLogger *Logger

func SetGlobalLogger(l *Logger) { GlobalLogger = l }

func Info(message string, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Info(message, keyvals...)
	}
}

func Warn(message string, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Warn(message, keyvals...)
	}
}

func Error(message string, err error, keyvals ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Error(message, err, keyvals...)
	}
}
