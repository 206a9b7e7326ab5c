package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwigBush/opa-authz/internal/authz"
)

func TestDecisions(t *testing.T) {
	d := New()
	d.ObserveDecision(authz.OpAccessCatalog, "allow", 3*time.Millisecond)
	d.ObserveDecision(authz.OpAccessCatalog, "allow", time.Millisecond)
	d.ObserveDenial(authz.OpDropTable)
	d.ObserveFilter(authz.OpFilterCatalogs, 2, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(d.Total.WithLabelValues("AccessCatalog", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.Denials.WithLabelValues("DropTable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.Filtered.WithLabelValues("FilterCatalogs", "dropped")))

	rec := httptest.NewRecorder()
	d.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "opa_authz_decisions_total")
}
