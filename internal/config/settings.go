package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Defaults for settings that are not configured.
const (
	DefaultPendingDaysBuffer = 14
	DefaultBatchSize         = 300
	DefaultBatchTimeout      = 2 * time.Minute
	DefaultServerAddr        = ":8080"
	DefaultClassifySchedule  = "@every 15m"
	DefaultScheduleTimezone  = "UTC"
)

// UploadSettings controls how statements are parsed and reconciled.
// Column numbers are 1-based as entered by the user; 0 means auto-detect.
type UploadSettings struct {
	DateFormat        string
	DateColumn        int
	AmountColumn      int
	DescriptionColumn int
	PendingDaysBuffer int
}

// ColumnIndexes holds zero-based column positions; nil means auto-detect.
type ColumnIndexes struct {
	Date        *int
	Amount      *int
	Description *int
}

// LoadUploadSettings reads upload settings from viper, applying defaults.
func LoadUploadSettings() UploadSettings {
	settings := UploadSettings{
		DateColumn:        viper.GetInt("upload.date_column"),
		AmountColumn:      viper.GetInt("upload.amount_column"),
		DescriptionColumn: viper.GetInt("upload.description_column"),
		PendingDaysBuffer: viper.GetInt("upload.pending_days_buffer"),
		DateFormat:        viper.GetString("upload.date_format"),
	}
	if settings.PendingDaysBuffer == 0 {
		settings.PendingDaysBuffer = DefaultPendingDaysBuffer
	}
	return settings
}

// Validate checks that the settings are usable.
func (s UploadSettings) Validate() error {
	for name, col := range map[string]int{
		"date_column":        s.DateColumn,
		"amount_column":      s.AmountColumn,
		"description_column": s.DescriptionColumn,
	} {
		if col < 0 {
			return fmt.Errorf("%w: upload.%s must be 0 (auto-detect) or a 1-based column number, got %d",
				common.ErrInvalidConfig, name, col)
		}
	}
	if s.PendingDaysBuffer < 1 {
		return fmt.Errorf("%w: upload.pending_days_buffer must be at least 1, got %d",
			common.ErrInvalidConfig, s.PendingDaysBuffer)
	}
	return nil
}

// Columns converts the 1-based user overrides into zero-based indexes.
func (s UploadSettings) Columns() ColumnIndexes {
	return ColumnIndexes{
		Date:        zeroBased(s.DateColumn),
		Amount:      zeroBased(s.AmountColumn),
		Description: zeroBased(s.DescriptionColumn),
	}
}

func zeroBased(col int) *int {
	if col <= 0 {
		return nil
	}
	idx := col - 1
	return &idx
}

// ClassificationSettings controls the batch classification drain.
type ClassificationSettings struct {
	BatchSize    int
	BatchTimeout time.Duration
}

// LoadClassificationSettings reads classification settings from viper, applying defaults.
func LoadClassificationSettings() ClassificationSettings {
	settings := ClassificationSettings{
		BatchSize:    viper.GetInt("classification.batch_size"),
		BatchTimeout: viper.GetDuration("classification.batch_timeout"),
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = DefaultBatchSize
	}
	if settings.BatchTimeout <= 0 {
		settings.BatchTimeout = DefaultBatchTimeout
	}
	return settings
}

// ServerSettings controls the HTTP server and its classification schedule.
type ServerSettings struct {
	Addr             string
	ClassifySchedule string
	Timezone         string
}

// LoadServerSettings reads server settings from viper, applying defaults.
func LoadServerSettings() ServerSettings {
	settings := ServerSettings{
		Addr:             viper.GetString("server.addr"),
		ClassifySchedule: viper.GetString("schedule.classify"),
		Timezone:         viper.GetString("schedule.timezone"),
	}
	if settings.Addr == "" {
		settings.Addr = DefaultServerAddr
	}
	if settings.ClassifySchedule == "" {
		settings.ClassifySchedule = DefaultClassifySchedule
	}
	if settings.Timezone == "" {
		settings.Timezone = DefaultScheduleTimezone
	}
	return settings
}
