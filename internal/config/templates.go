package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client":
		return clientTemplate, nil
	case "bot":
		return botTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `address = "127.0.0.1:7777"
transport = "tcp"
# secret may be left empty and supplied through WORLDLINK_SECRET
secret = "change-me"
nickname = "traveler"
chat_channel = "global"
tick_interval = "50ms"
move_rate = 10.0
move_min_distance = 0.01
max_connect_attempts = 0
status_addr = "127.0.0.1:7080"
cors_origins = ["http://localhost:3000"]
handshake_timeout = "5s"
heartbeat_interval = "5s"
read_timeout = "15s"
security_mode = "development"

[[spawn_points]]
x = 0.0
y = 1.0
z = 0.0

[[spawn_points]]
x = 10.0
y = 1.0
z = 10.0

[tls]
enabled = false
mutual = false
cert_file = ""
key_file = ""
ca_file = ""
server_name = ""
insecure_skip_verify = false
`

const botTemplate = `address = "127.0.0.1:7777"
transport = "tcp"
secret = "change-me"
nickname = "wander-bot"
tick_interval = "100ms"
move_rate = 5.0
max_connect_attempts = 10
status_addr = ""
wander = true
wander_radius = 8.0
heartbeat_interval = "5s"

[[spawn_points]]
x = 0.0
y = 1.0
z = 0.0
`
