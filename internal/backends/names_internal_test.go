package backends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteNameEncodingsAreInjective(t *testing.T) {
	t.Parallel()

	gcp := &GCPBackend{deployment: "dev", projectID: "p"}
	azure := &AzureBackend{deployment: "dev", vaultURL: "https://v.vault.azure.net"}

	tests := []struct {
		key       string
		wantGCP   string
		wantAzure string
	}{
		{"app.db.password:prod", "app-pdb-ppassword-cprod", "app-pdb-ppassword-cprod"},
		{"db-password:dev", "db--password-cdev", "db--password-cdev"},
		{"db.password:dev", "db-ppassword-cdev", "db-ppassword-cdev"},
		{"db_password:dev", "db_password-cdev", "db-upassword-cdev"},
		{"plain:dev", "plain-cdev", "plain-cdev"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantGCP, gcp.secretID(tt.key))
			assert.Equal(t, tt.wantAzure, azure.secretName(tt.key))
		})
	}

	// Every distinct key must land on a distinct remote name.
	gcpSeen := make(map[string]string)
	azureSeen := make(map[string]string)
	for _, tt := range tests {
		if prev, ok := gcpSeen[gcp.secretID(tt.key)]; ok {
			require.Failf(t, "gcp collision", "%s and %s share an ID", prev, tt.key)
		}
		gcpSeen[gcp.secretID(tt.key)] = tt.key
		if prev, ok := azureSeen[azure.secretName(tt.key)]; ok {
			require.Failf(t, "azure collision", "%s and %s share a name", prev, tt.key)
		}
		azureSeen[azure.secretName(tt.key)] = tt.key
	}
}
