// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watcher

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
	"golang.org/x/oauth2/clientcredentials"
)

// authenticate logs the session in. Accounts with auth: oauth2 obtain a
// client-credentials token and present it via OAUTHBEARER; everything else
// uses plain LOGIN.
func (w *Watcher) authenticate(ctx context.Context, client *imapclient.Client, port int) error {
	m := w.account.Mail

	if m.Auth != "oauth2" {
		if err := client.Login(m.Username, m.Password).Wait(); err != nil {
			return fmt.Errorf("imap auth: %w", err)
		}
		return nil
	}

	creds := &clientcredentials.Config{
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		TokenURL:     m.TokenURL,
		Scopes:       m.Scopes,
	}
	token, err := creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("oauth2 token for %s: %w", m.Username, err)
	}

	saslClient := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: m.Username,
		Token:    token.AccessToken,
		Host:     m.Host,
		Port:     port,
	})
	if err := client.Authenticate(saslClient); err != nil {
		return fmt.Errorf("imap oauth2 auth: %w", err)
	}
	return nil
}
