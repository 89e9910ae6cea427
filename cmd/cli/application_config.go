package cli

import _ "embed"

//go:embed config.yaml
var embeddedDefaultConfiguration []byte

const embeddedDefaultConfigurationTypeConstant = "yaml"

// EmbeddedDefaultConfiguration returns the configuration baked into the binary
// together with its content type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfiguration, embeddedDefaultConfigurationTypeConstant
}
