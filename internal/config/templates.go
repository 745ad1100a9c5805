package config

import (
	"fmt"
	"os"
)

// Template returns a config file spelling out every default.
func Template() string {
	return clientTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(clientTemplate), 0o600)
}

const clientTemplate = `listen_port = 5683
server_host = "::1"
server_port = 5684
server_id = 123
endpoint = "testlwm2mclient"
lifetime = "300s"
max_wait = "60s"
resolve_timeout = "5s"
dump_packets = true
test_instances = [0]
latitude = 27.986065
longitude = 86.922623

[retransmission]
initial_delay = "2s"
multiplier = 2.0
max_delay = "32s"
jitter = false
max_attempts = 4
`
