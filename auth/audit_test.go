package auth_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	"github.com/L-Aguilar/microsaas-sub003/internal/utils"
)

func auditLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestAuditTrailDenied(t *testing.T) {
	var buf bytes.Buffer
	trail := auth.NewAuditTrail(&buf)

	trail.Denied("u1", "authenticate", "token_revoked")
	trail.Denied("", "authenticate", "token_malformed")

	lines := auditLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "security_audit", lines[0]["component"])
	require.Equal(t, "u1", lines[0]["actor"])
	require.Equal(t, "denied", lines[0]["outcome"])
	require.Equal(t, "token_revoked", lines[0]["reason"])
	require.Equal(t, "unknown", lines[1]["actor"])
}

func TestAuditTrailAdmitted(t *testing.T) {
	var buf bytes.Buffer
	trail := auth.NewAuditTrail(&buf)

	trail.Admitted("u1", "login", utils.Ptr("t1"))
	trail.Admitted("sa1", "login", nil)

	lines := auditLines(t, &buf)
	require.Len(t, lines, 2)
	require.Equal(t, "admitted", lines[0]["outcome"])
	require.Equal(t, "t1", lines[0]["tenant_id"])
	_, hasTenant := lines[1]["tenant_id"]
	require.False(t, hasTenant)
}

func TestAuditTrailRevokedWritesTokenIDOnly(t *testing.T) {
	var buf bytes.Buffer
	trail := auth.NewAuditTrail(&buf)

	trail.Revoked("jti-abc", "logout", time.Now().Add(time.Hour))

	lines := auditLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "jti-abc", lines[0]["token_id"])
	require.Equal(t, "logout", lines[0]["reason"])
}

func TestAuditTrailRateLimited(t *testing.T) {
	var buf bytes.Buffer
	trail := auth.NewAuditTrail(&buf)

	trail.RateLimited("203.0.113.7", "login")

	lines := auditLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "rate_limited", lines[0]["outcome"])
	require.Equal(t, "203.0.113.7", lines[0]["client_key"])
}
