package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func overrideString(dst *string, envVar string) {
	if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
		*dst = value
	}
}

func overrideInt(dst *int, envVar string) {
	if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}

func overrideBool(dst *bool, envVar string) {
	if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*dst = parsed
		}
	}
}

func overrideDuration(dst *time.Duration, envVar string) {
	if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			*dst = parsed
		}
	}
}
