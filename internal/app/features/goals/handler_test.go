package goals_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/features/goals"
	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/Pythagora-io/okrtracker/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// recordingSender captures outgoing email instead of delivering it.
type recordingSender struct {
	mu     sync.Mutex
	emails []mailer.Email
}

func (s *recordingSender) Send(ctx context.Context, e mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, e)
	return nil
}

func (s *recordingSender) sent() []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Email(nil), s.emails...)
}

// goalEnvelope mirrors the mutation response body.
type goalEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Goal    shared.GoalView `json:"goal"`
}

func newTestHandler(t *testing.T) (*goals.Handler, *mongo.Database, *recordingSender) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sender := &recordingSender{}
	h := goals.NewHandler(db, sender, "http://localhost:3000", "OKR Tracker", httpjson.NewErrorLogger(logger), logger)
	return h, db, sender
}

func TestHandleSave_CreatesCanonicalWeek(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)

	// A Thursday; the sheet must land on that week's Monday.
	thursday := time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals", map[string]any{
		"userId":       ic.ID.Hex(),
		"weekStart":    thursday,
		"goalsContent": "<p>Ship the importer</p>",
	}, ic)
	rec := httptest.NewRecorder()
	handler.HandleSave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp goalEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if !resp.Success {
		t.Error("success = false on a saved sheet")
	}
	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !resp.Goal.WeekStart.Equal(wantStart) {
		t.Errorf("weekStart = %v, want %v", resp.Goal.WeekStart, wantStart)
	}
	if resp.Goal.GoalsContent != "<p>Ship the importer</p>" {
		t.Errorf("goalsContent = %q", resp.Goal.GoalsContent)
	}
}

func TestHandleSave_SameWeekUpdatesInPlace(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	save := func(content string) shared.GoalView {
		t.Helper()
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals", map[string]any{
			"weekStart":    week,
			"goalsContent": content,
		}, ic)
		rec := httptest.NewRecorder()
		handler.HandleSave(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
		}
		var resp goalEnvelope
		testutil.DecodeResponse(t, rec, &resp)
		return resp.Goal
	}

	first := save("<p>draft</p>")
	second := save("<p>final</p>")

	if first.ID != second.ID {
		t.Errorf("second save created a new sheet: %s vs %s", first.ID, second.ID)
	}
	if second.GoalsContent != "<p>final</p>" {
		t.Errorf("goalsContent = %q, want the updated content", second.GoalsContent)
	}
}

func TestHandleSave_SanitizesHTML(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals", map[string]any{
		"weekStart":    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		"goalsContent": `<p>ok</p><script>alert("x")</script>`,
	}, ic)
	rec := httptest.NewRecorder()
	handler.HandleSave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp goalEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if resp.Goal.GoalsContent != "<p>ok</p>" {
		t.Errorf("goalsContent = %q, want the script stripped", resp.Goal.GoalsContent)
	}
}

func TestHandleSave_Validation(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals", map[string]any{
		"goalsContent": "<p>no week</p>",
	}, ic)
	rec := httptest.NewRecorder()
	handler.HandleSave(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSave_ForAnotherUser(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	other := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals", map[string]any{
		"userId":       other.ID.Hex(),
		"weekStart":    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		"goalsContent": "<p>not mine</p>",
	}, ic)
	rec := httptest.NewRecorder()
	handler.HandleSave(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleSubmitGoals_NotifiesManager(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	manager := fx.CreateManager(ctx)
	ic := fx.CreateIC(ctx, nil)
	team := fx.CreateTeam(ctx, "Platform", manager.ID, ic.ID)
	teamID := team.ID
	ic.TeamID = &teamID
	if _, err := db.Collection("users").UpdateByID(ctx, ic.ID,
		map[string]any{"$set": map[string]any{"team_id": team.ID}}); err != nil {
		t.Fatalf("assigning team: %v", err)
	}

	g := fx.CreateGoal(ctx, ic.ID, time.Now(), "<p>Ship it</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/submit", nil, ic)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleSubmitGoals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp goalEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if resp.Goal.GoalsSubmittedAt == nil {
		t.Error("goalsSubmittedAt not stamped")
	}

	emails := sender.sent()
	if len(emails) != 1 {
		t.Fatalf("sent %d emails, want 1", len(emails))
	}
	if emails[0].To != manager.Email {
		t.Errorf("notification went to %q, want the manager %q", emails[0].To, manager.Email)
	}
}

func TestHandleSubmitGoals_EmptySheet(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, ic.ID, time.Now(), "")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/submit", nil, ic)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleSubmitGoals(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSubmitGoals_NotOwner(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	other := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>mine</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/submit", nil, other)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleSubmitGoals(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if len(sender.sent()) != 0 {
		t.Error("no notification should be sent on a rejected submit")
	}
}

func TestHandleSubmitResults_SetsContentAndStamp(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, ic.ID, time.Now(), "<p>goals</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/results",
		map[string]string{"resultsContent": "<p>done</p>"}, ic)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleSubmitResults(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp goalEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if resp.Goal.ResultsContent != "<p>done</p>" {
		t.Errorf("resultsContent = %q", resp.Goal.ResultsContent)
	}
	if resp.Goal.ResultsSubmittedAt == nil {
		t.Error("resultsSubmittedAt not stamped by the same call")
	}
}

func TestHandleSubmitResults_MissingContent(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, ic.ID, time.Now(), "<p>goals</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/results",
		map[string]string{}, ic)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleSubmitResults(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeGoal_OwnerAndManagerMayRead(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	manager := fx.CreateManager(ctx)
	stranger := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>goals</p>")

	serve := func(as models.User) int {
		t.Helper()
		req := testutil.NewAuthenticatedRequest(t, "GET", "/api/goals/"+g.ID.Hex(), nil, as)
		req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
		rec := httptest.NewRecorder()
		handler.ServeGoal(rec, req)
		return rec.Code
	}

	if code := serve(owner); code != http.StatusOK {
		t.Errorf("owner read: status = %d, want 200", code)
	}
	if code := serve(manager); code != http.StatusOK {
		t.Errorf("manager read: status = %d, want 200", code)
	}
	if code := serve(stranger); code != http.StatusForbidden {
		t.Errorf("stranger read: status = %d, want 403", code)
	}
}

func TestServeList_OwnGoals(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	other := fx.CreateIC(ctx, nil)
	fx.CreateGoal(ctx, ic.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "<p>a</p>")
	fx.CreateGoal(ctx, ic.ID, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), "<p>b</p>")
	fx.CreateGoal(ctx, other.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "<p>c</p>")

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/goals/user/"+ic.ID.Hex(), nil, ic)
	req = testutil.WithChiURLParam(req, "userID", ic.ID.Hex())
	rec := httptest.NewRecorder()
	handler.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Goals []shared.GoalView `json:"goals"`
	}
	testutil.DecodeResponse(t, rec, &resp)
	if len(resp.Goals) != 2 {
		t.Fatalf("got %d sheets, want 2", len(resp.Goals))
	}
	// Most recent week first.
	if !resp.Goals[0].WeekStart.After(resp.Goals[1].WeekStart) {
		t.Errorf("sheets not sorted newest first: %v, %v", resp.Goals[0].WeekStart, resp.Goals[1].WeekStart)
	}
}

func TestServeList_ICsMayNotReadOthers(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	other := fx.CreateIC(ctx, nil)

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/goals/user/"+other.ID.Hex(), nil, ic)
	req = testutil.WithChiURLParam(req, "userID", other.ID.Hex())
	rec := httptest.NewRecorder()
	handler.ServeList(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
