// Package config loads the configuration of the sync client, the reference
// sync server and the token tool.
//
// Values come from command-line flags, environment variables, an optional
// .env file and an optional JSON or YAML file. They are merged into a
// [StructuredConfig] and then projected into the narrower [ClientConfig],
// [ServerConfig] or [TokenConfig], each of which applies defaults and
// validates itself.
package config
