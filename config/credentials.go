package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoCredentials means neither FIREBASE_SERVICE_ACCOUNT nor the key file is available
var ErrNoCredentials = errors.New("no service account credentials found")

// ConfigError is a configuration problem detected at startup. It is fatal:
// the process must not subscribe to the store.
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ServiceAccount is loaded once at startup and handed to the store client
type ServiceAccount struct {
	ProjectID string
	JSON      []byte
	Source    string // "env" or the file path
}

// LoadServiceAccount reads the service account from FIREBASE_SERVICE_ACCOUNT
// first, then from the key file. projectOverride, when set, replaces the
// payload's project_id.
func LoadServiceAccount(creds CredentialsConfig, projectOverride string) (*ServiceAccount, error) {
	var (
		raw    []byte
		source string
	)
	switch {
	case creds.ServiceAccountJSON != "":
		raw, source = []byte(creds.ServiceAccountJSON), "env"
	case creds.ServiceAccountFile != "":
		data, err := os.ReadFile(creds.ServiceAccountFile)
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Key: "FIREBASE_SERVICE_ACCOUNT", Message: "not set and " + creds.ServiceAccountFile + " not found", Err: ErrNoCredentials}
		}
		if err != nil {
			return nil, &ConfigError{Key: "FIREBASE_CREDENTIALS_FILE", Message: "cannot read " + creds.ServiceAccountFile, Err: err}
		}
		raw, source = data, creds.ServiceAccountFile
	default:
		return nil, &ConfigError{Key: "FIREBASE_SERVICE_ACCOUNT", Message: "not set", Err: ErrNoCredentials}
	}

	var payload struct {
		Type        string `json:"type"`
		ProjectID   string `json:"project_id"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ConfigError{Key: "FIREBASE_SERVICE_ACCOUNT", Message: "malformed service account from " + source, Err: err}
	}
	if payload.ClientEmail == "" || payload.PrivateKey == "" {
		return nil, &ConfigError{Key: "FIREBASE_SERVICE_ACCOUNT", Message: "service account from " + source + " lacks client_email or private_key"}
	}

	projectID := payload.ProjectID
	if projectOverride != "" {
		projectID = projectOverride
	}
	if projectID == "" {
		return nil, &ConfigError{Key: "FIRESTORE_PROJECT_ID", Message: "no project_id in service account and no override set"}
	}

	return &ServiceAccount{ProjectID: projectID, JSON: raw, Source: source}, nil
}
