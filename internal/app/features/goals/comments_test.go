package goals_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/features/goals"
	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/Pythagora-io/okrtracker/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Comment shared.CommentView `json:"comment"`
}

type replyEnvelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Reply   shared.ReplyView `json:"reply"`
}

func TestHandleAddComment(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	manager := fx.CreateManager(ctx)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>Ship the importer</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/comments", map[string]any{
		"text":            "What does done look like?",
		"highlightedText": "the importer",
		"position":        12,
	}, manager)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleAddComment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp commentEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if !resp.Success {
		t.Error("success = false on an added comment")
	}
	if resp.Comment.Text != "What does done look like?" {
		t.Errorf("text = %q", resp.Comment.Text)
	}
	if resp.Comment.UserName != manager.Name || resp.Comment.UserRole != "manager" {
		t.Errorf("author cached as %q/%q, want %q/manager", resp.Comment.UserName, resp.Comment.UserRole, manager.Name)
	}
	if resp.Comment.Resolved {
		t.Error("new comment must start unresolved")
	}

	// A manager's comment notifies the sheet owner.
	emails := sender.sent()
	if len(emails) != 1 {
		t.Fatalf("sent %d emails, want 1", len(emails))
	}
	if emails[0].To != owner.Email {
		t.Errorf("notification went to %q, want the owner %q", emails[0].To, owner.Email)
	}
}

func TestHandleAddComment_OwnSheetNotifiesManager(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	manager := fx.CreateManager(ctx)
	team := fx.CreateTeam(ctx, "Growth", manager.ID)
	owner := fx.CreateIC(ctx, &team.ID)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>Ship the importer</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/comments", map[string]any{
		"text":     "Blocked on the schema review.",
		"position": 0,
	}, owner)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleAddComment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	// The owner commenting on their own sheet notifies their manager.
	emails := sender.sent()
	if len(emails) != 1 {
		t.Fatalf("sent %d emails, want 1", len(emails))
	}
	if emails[0].To != manager.Email {
		t.Errorf("notification went to %q, want the manager %q", emails[0].To, manager.Email)
	}
}

func TestHandleAddComment_OwnSheetNoTeam(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>goals</p>")

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/comments", map[string]any{
		"text":     "Note to self.",
		"position": 0,
	}, owner)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleAddComment(rec, req)

	// No team means no manager to notify; the comment still lands.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := len(sender.sent()); got != 0 {
		t.Errorf("sent %d emails, want 0", got)
	}
}

func TestHandleAddComment_Validation(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, ic.ID, time.Now(), "<p>goals</p>")

	for name, body := range map[string]map[string]any{
		"empty text":        {"text": "", "position": 0},
		"negative position": {"text": "hi", "position": -1},
	} {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+g.ID.Hex()+"/comments", body, ic)
		req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
		rec := httptest.NewRecorder()
		handler.HandleAddComment(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleAddReply(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	manager := fx.CreateManager(ctx)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>goals</p>")

	commentID := addComment(t, handler, g.ID.Hex(), manager)

	req := testutil.NewAuthenticatedRequest(t, "POST",
		"/api/goals/"+g.ID.Hex()+"/comments/"+commentID+"/replies",
		map[string]string{"text": "Done means shipped to prod."}, owner)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	req = testutil.WithChiURLParam(req, "commentID", commentID)
	rec := httptest.NewRecorder()
	handler.HandleAddReply(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp replyEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	if resp.Reply.Text != "Done means shipped to prod." {
		t.Errorf("reply text = %q", resp.Reply.Text)
	}
	if resp.Reply.UserName != owner.Name {
		t.Errorf("reply author = %q, want %q", resp.Reply.UserName, owner.Name)
	}

	// The reply is attached to the stored comment, not just echoed back.
	stored, err := goalstore.New(db).GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("reloading goal: %v", err)
	}
	if len(stored.Comments) != 1 || len(stored.Comments[0].Replies) != 1 {
		t.Fatalf("expected one comment with one reply, got %+v", stored.Comments)
	}
}

func TestHandleAddReply_NotifiesCommentAuthor(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	manager := fx.CreateManager(ctx)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>goals</p>")

	commentID := addComment(t, handler, g.ID.Hex(), manager)

	req := testutil.NewAuthenticatedRequest(t, "POST",
		"/api/goals/"+g.ID.Hex()+"/comments/"+commentID+"/replies",
		map[string]string{"text": "On it."}, owner)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	req = testutil.WithChiURLParam(req, "commentID", commentID)
	rec := httptest.NewRecorder()
	handler.HandleAddReply(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	// First email is the comment notification to the owner; the reply adds
	// one to the comment's author.
	emails := sender.sent()
	if len(emails) != 2 {
		t.Fatalf("sent %d emails, want 2", len(emails))
	}
	if emails[1].To != manager.Email {
		t.Errorf("reply notification went to %q, want the comment author %q", emails[1].To, manager.Email)
	}
}

func TestHandleAddReply_SelfReplySkipped(t *testing.T) {
	handler, db, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>goals</p>")

	commentID := addComment(t, handler, g.ID.Hex(), owner)

	req := testutil.NewAuthenticatedRequest(t, "POST",
		"/api/goals/"+g.ID.Hex()+"/comments/"+commentID+"/replies",
		map[string]string{"text": "Replying to myself."}, owner)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	req = testutil.WithChiURLParam(req, "commentID", commentID)
	rec := httptest.NewRecorder()
	handler.HandleAddReply(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	// The author replying to their own comment gets no email, and the
	// teamless comment produced none either.
	if got := len(sender.sent()); got != 0 {
		t.Errorf("sent %d emails, want 0", got)
	}
}

func TestHandleAddReply_UnknownComment(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ic := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, ic.ID, time.Now(), "<p>goals</p>")

	bogus := primitive.NewObjectID().Hex()
	req := testutil.NewAuthenticatedRequest(t, "POST",
		"/api/goals/"+g.ID.Hex()+"/comments/"+bogus+"/replies",
		map[string]string{"text": "hello?"}, ic)
	req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
	req = testutil.WithChiURLParam(req, "commentID", bogus)
	rec := httptest.NewRecorder()
	handler.HandleAddReply(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleResolveComment_Idempotent(t *testing.T) {
	handler, db, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateIC(ctx, nil)
	g := fx.CreateGoal(ctx, owner.ID, time.Now(), "<p>goals</p>")

	commentID := addComment(t, handler, g.ID.Hex(), owner)

	resolve := func() int {
		t.Helper()
		req := testutil.NewAuthenticatedRequest(t, "PUT",
			"/api/goals/"+g.ID.Hex()+"/comments/"+commentID+"/resolve", nil, owner)
		req = testutil.WithChiURLParam(req, "goalID", g.ID.Hex())
		req = testutil.WithChiURLParam(req, "commentID", commentID)
		rec := httptest.NewRecorder()
		handler.HandleResolveComment(rec, req)
		return rec.Code
	}

	if code := resolve(); code != http.StatusOK {
		t.Fatalf("first resolve: status = %d", code)
	}
	// Resolving again succeeds and stays resolved.
	if code := resolve(); code != http.StatusOK {
		t.Fatalf("second resolve: status = %d", code)
	}

	stored, err := goalstore.New(db).GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("reloading goal: %v", err)
	}
	if !stored.Comments[0].Resolved {
		t.Error("comment not marked resolved")
	}
}

// addComment posts one comment and returns its ID.
func addComment(t *testing.T, handler *goals.Handler, goalID string, as models.User) string {
	t.Helper()

	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/goals/"+goalID+"/comments", map[string]any{
		"text":     "seed comment",
		"position": 0,
	}, as)
	req = testutil.WithChiURLParam(req, "goalID", goalID)
	rec := httptest.NewRecorder()
	handler.HandleAddComment(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding comment: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var resp commentEnvelope
	testutil.DecodeResponse(t, rec, &resp)
	return resp.Comment.ID
}
