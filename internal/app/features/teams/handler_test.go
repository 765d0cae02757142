package teams_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	"github.com/Pythagora-io/okrtracker/internal/app/features/teams"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type teamEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Team    shared.TeamView `json:"team"`
}

func newTestHandler(t *testing.T) (*teams.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return teams.NewHandler(db, httpjson.NewErrorLogger(logger), logger), db
}

func teamID(t *testing.T, db *mongo.Database, userID primitive.ObjectID) *primitive.ObjectID {
	t.Helper()
	u, err := userstore.New(db).GetByID(testutil.TestContext(t), userID)
	if err != nil {
		t.Fatalf("loading user: %v", err)
	}
	return u.TeamID
}

func TestHandleCreate_AssignsMembers(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	manager := fx.CreateManager(ctx)
	ic1 := fx.CreateIC(ctx, nil)
	ic2 := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/teams", map[string]any{
		"name":      "Platform",
		"managerId": manager.ID.Hex(),
		"icIds":     []string{ic1.ID.Hex(), ic2.ID.Hex()},
	}, admin)
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp teamEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if !resp.Success {
		t.Error("success = false on a created team")
	}
	if len(resp.Team.ICIDs) != 2 {
		t.Errorf("icIds = %v, want 2 members", resp.Team.ICIDs)
	}

	// Members' team_id must point at the new team.
	for _, ic := range []primitive.ObjectID{ic1.ID, ic2.ID} {
		got := teamID(t, db, ic)
		if got == nil || got.Hex() != resp.Team.ID {
			t.Errorf("member %s team_id = %v, want %s", ic.Hex(), got, resp.Team.ID)
		}
	}
}

func TestHandleCreate_ICAsManagerRejected(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	ic := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/teams", map[string]any{
		"name":      "Bad Team",
		"managerId": ic.ID.Hex(),
	}, admin)
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleCreate_ManagerAsMemberRejected(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	manager := fx.CreateManager(ctx)
	otherManager := fx.CreateManager(ctx)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/teams", map[string]any{
		"name":      "Bad Roster",
		"managerId": manager.ID.Hex(),
		"icIds":     []string{otherManager.ID.Hex()},
	}, admin)
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleCreate_DuplicateName(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	manager := fx.CreateManager(ctx)
	fx.CreateTeam(ctx, "Platform", manager.ID)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/teams", map[string]any{
		"name":      "Platform",
		"managerId": manager.ID.Hex(),
	}, admin)
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleUpdate_ReconcilesRoster(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	manager := fx.CreateManager(ctx)
	stays := fx.CreateIC(ctx, nil)
	leaves := fx.CreateIC(ctx, nil)
	joins := fx.CreateIC(ctx, nil)

	// Seed a team through the handler so member team_ids are consistent.
	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/teams", map[string]any{
		"name":      "Platform",
		"managerId": manager.ID.Hex(),
		"icIds":     []string{stays.ID.Hex(), leaves.ID.Hex()},
	}, admin)
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var seeded teamEnvelope
	testutil.DecodeResponse(t, rec, &seeded)
	created := seeded.Team

	// Swap `leaves` for `joins`.
	req = testutil.NewAuthenticatedRequest(t, "PUT", "/api/teams/"+created.ID, map[string]any{
		"name":      "Platform",
		"managerId": manager.ID.Hex(),
		"icIds":     []string{stays.ID.Hex(), joins.ID.Hex()},
	}, admin)
	req = testutil.WithChiURLParam(req, "teamID", created.ID)
	rec = httptest.NewRecorder()
	handler.HandleUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	if got := teamID(t, db, stays.ID); got == nil || got.Hex() != created.ID {
		t.Errorf("staying member team_id = %v, want %s", got, created.ID)
	}
	if got := teamID(t, db, joins.ID); got == nil || got.Hex() != created.ID {
		t.Errorf("joining member team_id = %v, want %s", got, created.ID)
	}
	if got := teamID(t, db, leaves.ID); got != nil {
		t.Errorf("removed member team_id = %v, want cleared", got)
	}
}

func TestHandleDelete_ClearsMembers(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	manager := fx.CreateManager(ctx)
	ic := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/teams", map[string]any{
		"name":      "Doomed",
		"managerId": manager.ID.Hex(),
		"icIds":     []string{ic.ID.Hex()},
	}, admin)
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var seeded teamEnvelope
	testutil.DecodeResponse(t, rec, &seeded)
	created := seeded.Team

	req = testutil.NewAuthenticatedRequest(t, "DELETE", "/api/teams/"+created.ID, nil, admin)
	req = testutil.WithChiURLParam(req, "teamID", created.ID)
	rec = httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	if got := teamID(t, db, ic.ID); got != nil {
		t.Errorf("member team_id = %v after delete, want cleared", got)
	}
}

func TestHandleDelete_Unknown(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)

	bogus := primitive.NewObjectID().Hex()
	req := testutil.NewAuthenticatedRequest(t, "DELETE", "/api/teams/"+bogus, nil, admin)
	req = testutil.WithChiURLParam(req, "teamID", bogus)
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServeByManager_Authorization(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx)
	manager := fx.CreateManager(ctx)
	otherManager := fx.CreateManager(ctx)
	fx.CreateTeam(ctx, "Platform", manager.ID)

	serve := func(as string) (int, []shared.TeamView) {
		t.Helper()
		u := manager
		switch as {
		case "admin":
			u = admin
		case "other":
			u = otherManager
		}
		req := testutil.NewAuthenticatedRequest(t, "GET", "/api/teams/manager/"+manager.ID.Hex(), nil, u)
		req = testutil.WithChiURLParam(req, "managerID", manager.ID.Hex())
		rec := httptest.NewRecorder()
		handler.ServeByManager(rec, req)
		var resp struct {
			Teams []shared.TeamView `json:"teams"`
		}
		if rec.Code == http.StatusOK {
			testutil.DecodeResponse(t, rec, &resp)
		}
		return rec.Code, resp.Teams
	}

	if code, views := serve("self"); code != http.StatusOK || len(views) != 1 {
		t.Errorf("self read: status = %d, teams = %d; want 200 and 1", code, len(views))
	}
	if code, _ := serve("admin"); code != http.StatusOK {
		t.Errorf("admin read: status = %d, want 200", code)
	}
	if code, _ := serve("other"); code != http.StatusForbidden {
		t.Errorf("peer manager read: status = %d, want 403", code)
	}
}
