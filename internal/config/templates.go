package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server", "netmsgd":
		return serverTemplate, nil
	case "items":
		return itemsTemplate, nil
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

const serverTemplate = `network = "tcp"
listen_addr = "127.0.0.1:7171"
admin_addr = "127.0.0.1:7180"
cors_origins = ["http://localhost:3000"]
admin_token = ""
items_file = "configs/items.toml"
strict = false
read_timeout = "30s"
write_timeout = "10s"
max_payload_bytes = 24588
capture_file = ""
`

const itemsTemplate = `[[item]]
id = 100
client_id = 3031
name = "gold coin"
stackable = true

[[item]]
id = 101
client_id = 2006
name = "vial"
group = "fluid"
`
