package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.LEDCount != 225 {
		t.Errorf("Expected LEDCount to be 225, got %d", cfg.LEDCount)
	}
	if cfg.FPS != 60 {
		t.Errorf("Expected FPS to be 60, got %d", cfg.FPS)
	}
	if cfg.OSCListenPort != 9090 {
		t.Errorf("Expected OSCListenPort to be 9090, got %d", cfg.OSCListenPort)
	}
	if cfg.OSCReplyPort != 5005 {
		t.Errorf("Expected OSCReplyPort to be 5005, got %d", cfg.OSCReplyPort)
	}
	if cfg.OSCListenIP != "0.0.0.0" {
		t.Errorf("Expected OSCListenIP to be '0.0.0.0', got '%s'", cfg.OSCListenIP)
	}
}

func TestLoad_CustomEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "file:./prod.db")
	t.Setenv("LED_COUNT", "300")
	t.Setenv("FPS", "30")
	t.Setenv("OSC_LISTEN_PORT", "9191")
	t.Setenv("OSC_REPLY_PORT", "5006")
	t.Setenv("OUTPUT_ENABLED", "false")
	t.Setenv("OUTPUT_ADDR", "192.168.1.255")
	t.Setenv("OUTPUT_PORT", "7891")
	t.Setenv("MANAGER_FADE_IN_SEC", "2.5")
	t.Setenv("MANAGER_FADE_OUT_SEC", "1.5")
	t.Setenv("CORS_ORIGIN", "http://example.com")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be '8080', got '%s'", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
	if cfg.DatabaseURL != "file:./prod.db" {
		t.Errorf("Expected DatabaseURL to be 'file:./prod.db', got '%s'", cfg.DatabaseURL)
	}
	if cfg.LEDCount != 300 {
		t.Errorf("Expected LEDCount to be 300, got %d", cfg.LEDCount)
	}
	if cfg.FPS != 30 {
		t.Errorf("Expected FPS to be 30, got %d", cfg.FPS)
	}
	if cfg.OSCListenPort != 9191 {
		t.Errorf("Expected OSCListenPort to be 9191, got %d", cfg.OSCListenPort)
	}
	if cfg.OSCReplyPort != 5006 {
		t.Errorf("Expected OSCReplyPort to be 5006, got %d", cfg.OSCReplyPort)
	}
	if cfg.OutputEnabled != false {
		t.Errorf("Expected OutputEnabled to be false, got %v", cfg.OutputEnabled)
	}
	if cfg.OutputAddr != "192.168.1.255" {
		t.Errorf("Expected OutputAddr to be '192.168.1.255', got '%s'", cfg.OutputAddr)
	}
	if cfg.OutputPort != 7891 {
		t.Errorf("Expected OutputPort to be 7891, got %d", cfg.OutputPort)
	}
	if cfg.ManagerFadeInSec != 2.5 {
		t.Errorf("Expected ManagerFadeInSec to be 2.5, got %v", cfg.ManagerFadeInSec)
	}
	if cfg.ManagerFadeOutSec != 1.5 {
		t.Errorf("Expected ManagerFadeOutSec to be 1.5, got %v", cfg.ManagerFadeOutSec)
	}
	if cfg.CORSOrigin != "http://example.com" {
		t.Errorf("Expected CORSOrigin to be 'http://example.com', got '%s'", cfg.CORSOrigin)
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV", "custom_value")

	result := getEnv("TEST_GET_ENV", "default")
	if result != "custom_value" {
		t.Errorf("Expected 'custom_value', got '%s'", result)
	}

	result = getEnv("NON_EXISTING_VAR_12345_UNIQUE", "default_value")
	if result != "default_value" {
		t.Errorf("Expected 'default_value', got '%s'", result)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")

	result := getEnvInt("TEST_INT_VAR", 10)
	if result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}

	t.Setenv("TEST_INVALID_INT", "not_a_number")

	result = getEnvInt("TEST_INVALID_INT", 10)
	if result != 10 {
		t.Errorf("Expected default 10 for invalid int, got %d", result)
	}

	result = getEnvInt("NON_EXISTING_INT_VAR_12345_UNIQUE", 100)
	if result != 100 {
		t.Errorf("Expected default 100, got %d", result)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT_VAR", "1.5")

	result := getEnvFloat("TEST_FLOAT_VAR", 0.5)
	if result != 1.5 {
		t.Errorf("Expected 1.5, got %v", result)
	}

	t.Setenv("TEST_INVALID_FLOAT", "not_a_float")

	result = getEnvFloat("TEST_INVALID_FLOAT", 0.5)
	if result != 0.5 {
		t.Errorf("Expected default 0.5 for invalid float, got %v", result)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
		setEnv       bool
	}{
		{"true_string", "true", false, true, true},
		{"false_string", "false", true, false, true},
		{"1_string", "1", false, true, true},
		{"0_string", "0", true, false, true},
		{"invalid_string_returns_default", "invalid", true, true, true},
		{"non_existing_returns_default_true", "", true, true, false},
		{"non_existing_returns_default_false", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envKey := "TEST_BOOL_VAR_" + tt.name + "_UNIQUE"
			if tt.setEnv {
				t.Setenv(envKey, tt.envValue)
			}

			result := getEnvBool(envKey, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvBool(%s, %v) = %v, want %v", envKey, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestConfig_StructFields(t *testing.T) {
	cfg := &Config{
		Port:              "4000",
		Env:               "test",
		DatabaseURL:       "test.db",
		LEDCount:          225,
		FPS:               60,
		OutputEnabled:     true,
		OutputAddr:        "255.255.255.255",
		OutputPort:        7890,
		ManagerFadeInSec:  1.0,
		ManagerFadeOutSec: 1.0,
		CORSOrigin:        "http://localhost",
	}

	if cfg.Port != "4000" {
		t.Error("Port field access failed")
	}
	if cfg.LEDCount != 225 {
		t.Error("LEDCount field access failed")
	}
	if cfg.OutputEnabled != true {
		t.Error("OutputEnabled field access failed")
	}
}
