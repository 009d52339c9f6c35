package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskmanager/internal/flagx"
	"github.com/dmitrijs2005/taskmanager/internal/timex"
)

// JsonConfig is the on-disk JSON shape of Config. Durations use
// timex.Duration so both "12h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	BaseURL                     string         `json:"base_url"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	JWTIssuer                   string         `json:"jwt_issuer"`
	JWTAudience                 string         `json:"jwt_audience"`
	JWTSubject                  string         `json:"jwt_subject"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	PostmarkServerToken         string         `json:"postmark_server_token"`
	PostmarkAccountToken        string         `json:"postmark_account_token"`
	SenderEmail                 string         `json:"sender_email"`
	SupportEmail                string         `json:"support_email"`
	MailDir                     string         `json:"mail_dir"`
	RedisURL                    string         `json:"redis_url"`
	LoginMaxAttempts            int            `json:"login_max_attempts"`
	LoginAttemptWindow          timex.Duration `json:"login_attempt_window"`
	LogFormat                   string         `json:"log_format"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays Config with the JSON file named by -c/-config.
// Only keys present with non-zero values override the current settings.
// Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.JWTIssuer, c.JWTIssuer)
	setString(&config.JWTAudience, c.JWTAudience)
	setString(&config.JWTSubject, c.JWTSubject)
	setString(&config.PostmarkServerToken, c.PostmarkServerToken)
	setString(&config.PostmarkAccountToken, c.PostmarkAccountToken)
	setString(&config.SenderEmail, c.SenderEmail)
	setString(&config.SupportEmail, c.SupportEmail)
	setString(&config.MailDir, c.MailDir)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.LoginAttemptWindow.Duration != 0 {
		config.LoginAttemptWindow = c.LoginAttemptWindow.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.LoginMaxAttempts != 0 {
		config.LoginMaxAttempts = c.LoginMaxAttempts
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
