package constants

import (
	"strconv"
	"time"
)

// Redis key layout: clinicq:{module}:{kind}:{identifier}

const (
	CACHE_PREFIX = "clinicq"
)

// ================== PATIENTS MODULE ==================

const (
	CACHE_KEY_PATIENT_DISPLAY_NAME = CACHE_PREFIX + ":patients:display_name:uuid:" // + patient-id
)

const (
	TTL_PATIENT_DISPLAY_NAME = 6 * time.Hour
)

// ================== ANALYTICS MODULE ==================

const (
	CACHE_KEY_ANALYTICS_QUEUE = CACHE_PREFIX + ":analytics:queue:days:" // + day-count
)

const (
	TTL_ANALYTICS_QUEUE = 1 * time.Minute
)

// ================== RATE LIMITING ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + class:identifier
)

// ================== HELPER FUNCTIONS ==================

func BuildPatientDisplayNameKey(patientID string) string {
	return CACHE_KEY_PATIENT_DISPLAY_NAME + patientID
}

func BuildQueueAnalyticsKey(days int) string {
	return CACHE_KEY_ANALYTICS_QUEUE + strconv.Itoa(days)
}

func BuildRateLimitKey(class, identifier string) string {
	return CACHE_KEY_RATE_LIMIT + class + ":" + identifier
}
