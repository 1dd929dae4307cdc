package config

import _ "embed"

// DefaultConfigYAML 内置默认配置
//
//go:embed config.default.yaml
var DefaultConfigYAML []byte
