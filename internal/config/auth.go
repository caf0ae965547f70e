package config

type AuthConfig struct {
	Provider string          `yaml:"provider"` // local, firebase
	Firebase *FirebaseConfig `yaml:"firebase"`
}

type FirebaseConfig struct {
	ProjectID         string `yaml:"project_id"`
	CredentialsFile   string `yaml:"credentials_file"`
	CredentialsBase64 string `yaml:"credentials_base64"`
}

func loadAuthConfig() *AuthConfig {
	return &AuthConfig{
		Provider: getEnv("AUTH_PROVIDER", "local"),
		Firebase: &FirebaseConfig{
			ProjectID:         getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile:   getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			CredentialsBase64: getEnv("FIREBASE_CREDENTIALS_BASE64", ""),
		},
	}
}
