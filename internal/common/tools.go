package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID with an optional prefix
func GenerateUUID(prefix string) string {
	id := uuid.New()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(id.String(), "-", ""))
	}
	return id.String()
}

// GenerateCycleID generates a rebalance cycle ID with "cyc" prefix
func GenerateCycleID() string {
	return GenerateUUID("cyc")
}

// GenerateDecisionID generates a rebalance decision ID with "rbl" prefix
func GenerateDecisionID() string {
	return GenerateUUID("rbl")
}
