package misc

import (
	"os"
	"sync"
)

const defaultServiceName = "prodflow"

var (
	serviceInstance     string
	serviceInstanceOnce sync.Once
)

// GetServiceName SERVICE_NAME
func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		return defaultServiceName
	}
	return name
}

func GetServiceInstance() string {
	serviceInstanceOnce.Do(func() {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serviceInstance = hostname
	})
	return serviceInstance
}
