package verifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/verifications"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/archive"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	verifstore "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/verifications"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auditlog"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auth"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/ratelimit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/workflow"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/testutil"
)

type env struct {
	h     *verifications.Handler
	gw    *docstore.Memory
	audit *auditlog.Logger
	logs  *observer.ObservedLogs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	gw := docstore.NewMemory()
	fx := testutil.NewFixtures(t, gw)
	clock := func() time.Time { return fx.Now }

	fx.CreateCustomer(ctx, "u1", "Ana Cruz", nil)
	fx.CreateRecord(ctx, "v1", "u1", nil)
	fx.CreateRider(ctx, "r1", "Ben Reyes", nil)
	fx.CreateRecord(ctx, "v2", "r1", bson.M{"id_type": "Driver's License"})

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	audit := auditlog.New(nil, log, auditlog.Config{Review: "log", Security: "log"})
	pass := reconcile.NewPass(gw, log, nil).WithClock(clock)
	engine := workflow.New(workflow.Deps{
		Gateway: gw,
		Pass:    pass,
		Audit:   audit,
		Log:     log,
		Now:     clock,
	})
	h := verifications.NewHandler(pass, engine, uierrors.NewErrorLogger(log), log)
	return &env{h: h, gw: gw, audit: audit, logs: logs}
}

type listBody struct {
	Items []struct {
		ID     string `json:"id"`
		Role   string `json:"user_role"`
		Status string `json:"status"`
	} `json:"items"`
	Counts struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
	} `json:"counts"`
	Summary struct {
		All struct {
			Total int `json:"total"`
		} `json:"all"`
	} `json:"summary"`
	Role  string `json:"role"`
	Flash *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"flash"`
	CanReview   bool            `json:"can_review"`
	Diagnostics json.RawMessage `json:"diagnostics"`
}

func decodeList(t *testing.T, rec *testutil.ResponseRecorder) listBody {
	t.Helper()
	var b listBody
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return b
}

func location(role, msg, kind string) string {
	q := url.Values{}
	if role != "" {
		q.Set("role", role)
	}
	q.Set("msg", msg)
	q.Set("type", kind)
	return "/verifications?" + q.Encode()
}

func post(e *env, handler http.HandlerFunc, user testutil.TestUser, form url.Values) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	handler(rec, testutil.NewFormRequest("/verifications", form, user))
	return rec
}

func TestServeList_AllRoles(t *testing.T) {
	e := newEnv(t)
	rec := testutil.NewRecorder()

	e.h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/verifications", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	b := decodeList(t, rec)
	if len(b.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(b.Items))
	}
	if b.Counts.Total != 2 || b.Counts.Pending != 2 {
		t.Errorf("counts: got %+v", b.Counts)
	}
	if !b.CanReview {
		t.Error("admin should be able to review")
	}
	if b.Flash != nil {
		t.Errorf("unexpected flash: %+v", b.Flash)
	}
	if len(b.Diagnostics) != 0 {
		t.Error("diagnostics should be omitted without debug=1")
	}
}

func TestServeList_RoleFilterKeepsFullSummary(t *testing.T) {
	e := newEnv(t)
	rec := testutil.NewRecorder()

	e.h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/verifications?role=rider&debug=1", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	b := decodeList(t, rec)
	if len(b.Items) != 1 || b.Items[0].ID != "v2" || b.Items[0].Role != "rider" {
		t.Fatalf("rider items: got %+v", b.Items)
	}
	if b.Role != "rider" || b.Counts.Total != 1 {
		t.Errorf("filter: role %q counts %+v", b.Role, b.Counts)
	}
	if b.Summary.All.Total != 2 {
		t.Errorf("summary all: got %d, want 2", b.Summary.All.Total)
	}
	if len(b.Diagnostics) == 0 {
		t.Error("expected diagnostics with debug=1")
	}
}

func TestServeList_UnknownRoleShowsAll(t *testing.T) {
	e := newEnv(t)
	rec := testutil.NewRecorder()

	e.h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/verifications?role=merchant", testutil.AdminUser()))

	b := decodeList(t, rec)
	if b.Role != "" || len(b.Items) != 2 {
		t.Errorf("role %q items %d", b.Role, len(b.Items))
	}
}

func TestServeList_Flash(t *testing.T) {
	e := newEnv(t)
	rec := testutil.NewRecorder()
	target := "/verifications?msg=" + url.QueryEscape("Verification approved.") + "&type=bogus"

	e.h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser()))

	b := decodeList(t, rec)
	if b.Flash == nil || b.Flash.Message != "Verification approved." || b.Flash.Type != "success" {
		t.Errorf("flash: got %+v", b.Flash)
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	e := newEnv(t)
	rec := testutil.NewRecorder()

	e.h.ServeList(rec, testutil.NewRequest("GET", "/verifications"))

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeList_PassFailure(t *testing.T) {
	e := newEnv(t)
	e.gw.FailOn(docstore.OpGetAll, verifstore.Collection, errors.New("socket closed"))
	rec := testutil.NewRecorder()

	e.h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/verifications", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), "socket closed") {
		t.Error("store error leaked into response")
	}
	if e.logs.FilterMessage("reconcile pass failed").Len() != 1 {
		t.Error("expected pass failure to be logged")
	}
}

func TestHandleApprove(t *testing.T) {
	e := newEnv(t)

	rec := post(e, e.h.HandleApprove, testutil.AdminUser(), url.Values{
		"verification_id": {"v1"},
		"role":            {"customer"},
	})

	rec.AssertRedirect(t, location("customer", "Verification approved.", "success"))
	d, err := e.gw.Get(context.Background(), verifstore.Collection, "v1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if d.Fields["status"] != "approved" {
		t.Errorf("record status: got %v", d.Fields["status"])
	}
	if e.gw.Count(archive.Collection) != 1 {
		t.Errorf("archive entries: got %d, want 1", e.gw.Count(archive.Collection))
	}
}

func TestHandleReject_RequiresNote(t *testing.T) {
	e := newEnv(t)
	before := len(e.gw.Writes())

	rec := post(e, e.h.HandleReject, testutil.AdminUser(), url.Values{
		"verification_id": {"v1"},
		"admin_note":      {"   "},
	})

	rec.AssertRedirect(t, location("", "Please enter a reason to reject this verification.", "error"))
	if got := len(e.gw.Writes()); got != before {
		t.Errorf("writes: got %d new, want none", got-before)
	}
}

func TestHandleReject_ThenUnverifyRefused(t *testing.T) {
	e := newEnv(t)

	rec := post(e, e.h.HandleReject, testutil.AdminUser(), url.Values{
		"verification_id": {"v2"},
		"admin_note":      {"Blurry license photo"},
		"role":            {"rider"},
	})
	rec.AssertRedirect(t, location("rider", "Verification rejected.", "success"))

	rec = post(e, e.h.HandleUnverify, testutil.AdminUser(), url.Values{
		"verification_id": {"v2"},
		"admin_note":      {"undo"},
	})
	rec.AssertRedirect(t, location("", "Only approved verifications can be unverified.", "error"))
}

func TestHandleApprove_UnknownItem(t *testing.T) {
	e := newEnv(t)

	rec := post(e, e.h.HandleApprove, testutil.AdminUser(), url.Values{"verification_id": {"missing"}})

	rec.AssertRedirect(t, location("", "Verification not found. It may have been removed.", "error"))
}

func TestHandleApprove_MissingID(t *testing.T) {
	e := newEnv(t)

	rec := post(e, e.h.HandleApprove, testutil.AdminUser(), url.Values{})

	rec.AssertRedirect(t, location("", "No verification was selected.", "error"))
}

func TestHandleApprove_NonReviewerRole(t *testing.T) {
	e := newEnv(t)

	rec := post(e, e.h.HandleApprove, testutil.SupportUser(), url.Values{"verification_id": {"v1"}})

	rec.AssertRedirect(t, location("", "You are not allowed to review verifications.", "error"))
}

func TestHandleApprove_PartialWriteThenRetry(t *testing.T) {
	e := newEnv(t)
	e.gw.FailOn(docstore.OpSet, archive.Collection, errors.New("write concern timeout"))

	rec := post(e, e.h.HandleApprove, testutil.AdminUser(), url.Values{"verification_id": {"v1"}})
	rec.AssertRedirect(t, location("", "The review was only partly saved. Repeat the same action to finish it.", "error"))
	if e.logs.FilterMessage("review action left part-applied").Len() != 1 {
		t.Error("expected partial write warning")
	}

	e.gw.ClearFaults()
	rec = post(e, e.h.HandleApprove, testutil.AdminUser(), url.Values{"verification_id": {"v1"}})
	rec.AssertRedirect(t, location("", "Verification approved. An earlier incomplete update was finished.", "success"))
}

func TestHandleApprove_Unauthenticated(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/verifications/approve", strings.NewReader("verification_id=v1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := testutil.NewRecorder()

	e.h.HandleApprove(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	entries := e.logs.FilterMessage("review action without a session").All()
	if len(entries) != 1 {
		t.Fatalf("expected one signed-out refusal log, got %d", len(entries))
	}
	if ip := entries[0].ContextMap()["client_ip"]; ip != "192.0.2.1" {
		t.Errorf("client_ip: got %v, want 192.0.2.1", ip)
	}
}

func TestHandleApprove_SupersededRecord(t *testing.T) {
	e := newEnv(t)
	err := e.gw.Set(context.Background(), verifstore.Collection, "v0", bson.M{
		"user_id":      "u1",
		"status":       "rejected",
		"submitted_at": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed v0: %v", err)
	}
	before := len(e.gw.Writes())

	rec := post(e, e.h.HandleApprove, testutil.AdminUser(), url.Values{"verification_id": {"v0"}})
	rec.AssertRedirect(t, location("", "A newer submission exists for this person. Refresh the queue and review that one.", "error"))
	if got := len(e.gw.Writes()); got != before {
		t.Errorf("superseded approve wrote %d documents", got-before)
	}
}

func TestHandleApprove_Throttled(t *testing.T) {
	e := newEnv(t)
	e.h.Throttle = ratelimit.New(1, 1)
	admin := testutil.AdminUser()

	rec := post(e, e.h.HandleApprove, admin, url.Values{"verification_id": {"v1"}})
	rec.AssertRedirect(t, location("", "Verification approved.", "success"))

	before := len(e.gw.Writes())
	rec = post(e, e.h.HandleReject, admin, url.Values{"verification_id": {"v2"}, "admin_note": {"blurry"}})
	rec.AssertRedirect(t, location("", "Too many review actions. Wait a moment and try again.", "error"))
	if got := len(e.gw.Writes()); got != before {
		t.Errorf("throttled action wrote %d documents", got-before)
	}
	throttled := e.logs.FilterMessage("review action throttled").All()
	if len(throttled) != 1 {
		t.Fatalf("expected one throttle warning, got %d", len(throttled))
	}
	if ip := throttled[0].ContextMap()["client_ip"]; ip != "192.0.2.1" {
		t.Errorf("client_ip: got %v, want 192.0.2.1", ip)
	}

	rec = post(e, e.h.HandleReject, testutil.AdminUser(), url.Values{"verification_id": {"v2"}, "admin_note": {"blurry"}})
	rec.AssertRedirect(t, location("", "Verification rejected.", "success"))
}

func newRouter(t *testing.T, e *env) http.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "pabili-session", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	csrf := verifications.CSRF([]byte(strings.Repeat("c", 32)), false, e.audit)
	return verifications.Routes(e.h, sm, csrf, "admin")
}

func TestRoutes_NonReviewerForbidden(t *testing.T) {
	e := newEnv(t)
	router := newRouter(t, e)
	rec := testutil.NewRecorder()

	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.SupportUser()))

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestRoutes_PostWithoutTokenRejected(t *testing.T) {
	e := newEnv(t)
	router := newRouter(t, e)
	before := len(e.gw.Writes())
	rec := testutil.NewRecorder()

	router.ServeHTTP(rec, testutil.NewFormRequest("/approve", url.Values{"verification_id": {"v1"}}, testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusForbidden)
	if got := len(e.gw.Writes()); got != before {
		t.Errorf("writes after rejected post: %d", got-before)
	}
	found := false
	for _, entry := range e.logs.FilterMessage("audit event").All() {
		if entry.ContextMap()["event_type"] == "csrf_rejected" {
			found = true
		}
	}
	if !found {
		t.Error("expected csrf_rejected audit event")
	}
}

func TestRoutes_TokenRoundTrip(t *testing.T) {
	e := newEnv(t)
	router := newRouter(t, e)
	admin := testutil.AdminUser()

	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, testutil.NewAuthenticatedRequest("GET", "/", admin))
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET status: %d", getRec.Code)
	}
	var view struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.CSRFToken == "" {
		t.Fatal("expected a csrf token in the queue view")
	}

	req := testutil.NewFormRequest("/approve", url.Values{
		"csrf_token":      {view.CSRFToken},
		"verification_id": {"v1"},
	}, admin)
	for _, c := range getRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertRedirect(t, location("", "Verification approved.", "success"))
}
