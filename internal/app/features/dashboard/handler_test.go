package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/dashboard"
	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/subjects"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/testutil"
)

func newTestHandler(t *testing.T) (*dashboard.Handler, *docstore.Memory) {
	t.Helper()
	ctx := context.Background()
	gw := docstore.NewMemory()
	fx := testutil.NewFixtures(t, gw)

	fx.CreateCustomer(ctx, "u1", "Ana Cruz", nil)
	fx.CreateRecord(ctx, "v1", "u1", nil)
	// A second pending record for the same customer must not be counted twice.
	fx.CreateRecord(ctx, "v1b", "u1", bson.M{"submitted_at": fx.Now.Add(-3 * time.Hour)})
	fx.CreateRider(ctx, "r1", "Ben Reyes", bson.M{"verificationStatus": "APPROVED"})
	fx.CreateRecord(ctx, "v2", "r1", bson.M{"status": "approved"})

	logger := zap.NewNop()
	pass := reconcile.NewPass(gw, logger, nil)
	return dashboard.NewHandler(pass, uierrors.NewErrorLogger(logger), logger), gw
}

func TestServeDashboard_Unauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	rec := httptest.NewRecorder()

	handler.ServeDashboard(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/" {
		t.Errorf("Location: got %q, want %q", location, "/")
	}
}

func TestServeDashboard_PendingCount(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := testutil.NewRecorder()

	handler.ServeDashboard(rec, testutil.NewAuthenticatedRequest("GET", "/dashboard", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Pending int            `json:"pending_verifications"`
		ByRole  map[string]int `json:"pending_by_role"`
		Role    string         `json:"role"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Pending != 1 {
		t.Errorf("pending_verifications: got %d, want 1", body.Pending)
	}
	if body.ByRole["customer"] != 1 || body.ByRole["rider"] != 0 {
		t.Errorf("pending_by_role: got %v", body.ByRole)
	}
	if body.Role != "admin" {
		t.Errorf("role: got %q", body.Role)
	}
}

func TestServeDashboard_PassFailure(t *testing.T) {
	handler, gw := newTestHandler(t)
	gw.FailOn(docstore.OpGetAll, subjects.CollRiders, errors.New("timeout"))
	rec := testutil.NewRecorder()

	handler.ServeDashboard(rec, testutil.NewAuthenticatedRequest("GET", "/dashboard", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusInternalServerError)
}
