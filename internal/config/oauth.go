package config

import (
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// NewOAuthConfig builds the Google OAuth client for the device flow. The
// only scope requested is the app-data folder.
func (c *Config) NewOAuthConfig() (*oauth2.Config, error) {
	if c.GoogleClientID == "" {
		return nil, fmt.Errorf("google_client_id is required to connect")
	}
	return &oauth2.Config{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveAppdataScope},
	}, nil
}
