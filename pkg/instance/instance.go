// Package instance names the running process for lock ownership and logs.
package instance

import (
	"fmt"
	"os"
)

// GetID returns SUPPLYCHAIN_INSTANCE_ID when set, otherwise host and pid.
func GetID() string {
	if id := os.Getenv("SUPPLYCHAIN_INSTANCE_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
