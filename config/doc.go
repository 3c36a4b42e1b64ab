// Package config loads vidprofile configuration with Viper.
//
// A config.yml found under ./cmd/<service>/, ./config/ or the working
// directory provides the base values. A .env file is loaded next and every
// environment variable is bound under several nested key spellings, so
// GROQ_API_KEY fills groq.api_key and ROUTER_ATTEMPT_TIMEOUT fills
// router.attempt_timeout.
//
//	var cfg app.Config
//	if err := config.LoadConfig("vidprofile", &cfg); err != nil { ... }
package config
