// Package oauth2 provides authorization-code exchangers for common
// providers. Each exchanger turns a callback code into a token and a raw
// profile map; normalization happens upstream.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

type BaseExchanger struct {
	Config *oauth2.Config

	// UserInfoURL is where the provider serves the profile for a bearer
	// token. Overridable for testing.
	UserInfoURL string

	// AuthHeader, when true, sends the token as an Authorization header
	// instead of an access_token query parameter.
	AuthHeader bool

	// Client is the HTTP client for profile fetches. Defaults to
	// http.DefaultClient. Overridable for testing.
	Client *http.Client
}

func (b *BaseExchanger) AuthCodeURL(state string) string {
	return b.Config.AuthCodeURL(state)
}

func (b *BaseExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return b.Config.Exchange(ctx, code)
}

func (b *BaseExchanger) UserInfo(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	infoURL := b.UserInfoURL
	if !b.AuthHeader {
		infoURL += "?access_token=" + token.AccessToken
	}
	req, err := http.NewRequestWithContext(ctx, "GET", infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if b.AuthHeader {
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}
	req.Header.Set("Accept", "application/json")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request returned %d", response.StatusCode)
	}
	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}
	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return userInfo, nil
}
