package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"oauth": map[string]any{
			"baseUrl": "",
			"google": map[string]any{
				"clientId":     "",
				"clientSecret": "",
			},
		},
		"secretKey": map[string]any{
			"session": "",
		},
		"webauthn": map[string]any{
			"rpId": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "OAUTH_BASEURL", want: "oauth.baseUrl"},
		{envKey: "OAUTH_GOOGLE_CLIENTSECRET", want: "oauth.google.clientSecret"},
		{envKey: "SECRETKEY_SESSION", want: "secretKey.session"},
		{envKey: "WEBAUTHN_RPID", want: "webauthn.rpId"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
