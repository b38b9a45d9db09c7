package app

// ─────────────────────────────────────────────────────────────
// Source Adapter Bridge
// ─────────────────────────────────────────────────────────────
//
// The records sources package uses interfaces (ConnectionProvider,
// RecipientListStore) to reach app infrastructure without creating
// circular deps. This file provides the concrete adapters on top of
// storage, the secret store, and dbclient.

import (
	"context"
	"fmt"

	"stencil/internal/dbclient"
	"stencil/internal/domain"
	"stencil/internal/records/sources"
	"stencil/internal/secret"
)

// wireSourceAdapters installs the package-level providers the recipient
// sources resolve at read time.
func wireSourceAdapters(
	recipients domain.RecipientListStore,
	conns domain.DatabaseConnectionStore,
	secrets secret.SecretStore,
) {
	sources.SetRecipientListStore(recipients)
	sources.SetConnectionProvider(&storedConnectionProvider{conns: conns, secrets: secrets})
}

// storedConnectionProvider opens a fresh connector per fetch. Recipient
// reads are batch-sized and infrequent, so connection reuse isn't worth
// the lifecycle bookkeeping.
type storedConnectionProvider struct {
	conns   domain.DatabaseConnectionStore
	secrets secret.SecretStore
}

func (p *storedConnectionProvider) FetchRows(ctx context.Context, connectionID, request string, maxRows int) ([]map[string]any, error) {
	conn, err := p.conns.GetConnection(connectionID)
	if err != nil {
		return nil, fmt.Errorf("resolve connection %s: %w", connectionID, err)
	}

	password, err := p.secrets.Get("dbpass:" + connectionID)
	if err != nil {
		return nil, fmt.Errorf("resolve credential for %s: %w", connectionID, err)
	}

	connector, err := dbclient.NewConnector(conn, string(password))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", conn.Name, err)
	}
	defer connector.Close()

	rows, err := connector.Fetch(ctx, request, maxRows)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", conn.Name, err)
	}
	return rows, nil
}

var _ sources.ConnectionProvider = (*storedConnectionProvider)(nil)
