package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        int
	DatabaseURL string
	NatsURL     string
	NatsToken   string
	LogLevel    string
	APIToken    string

	GatewayAPIKey string
	GatewayModel  string

	VapiAPIKey        string
	VapiPhoneNumberID string
	VapiAssistantID   string
	OnCallNumber      string
}

func Load() Config {
	return Config{
		Port:        envInt("CARELINE_PORT", 8760),
		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:   envStr("NATS_TOKEN", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		APIToken:    envStr("CARELINE_API_TOKEN", ""),

		GatewayAPIKey: envStr("GATEWAY_API_KEY", ""),
		GatewayModel:  envStr("GATEWAY_MODEL", "google/gemini-2.5-flash"),

		VapiAPIKey:        envStr("VAPI_API_KEY", ""),
		VapiPhoneNumberID: envStr("VAPI_PHONE_NUMBER_ID", ""),
		VapiAssistantID:   envStr("VAPI_ASSISTANT_ID", ""),
		OnCallNumber:      envStr("ONCALL_PHONE_NUMBER", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
