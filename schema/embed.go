package schema

import _ "embed"

// ConfigV1Schema contains the JSON schema for relaunch configuration files.
//
//go:embed relaunch.v1.json
var ConfigV1Schema []byte
