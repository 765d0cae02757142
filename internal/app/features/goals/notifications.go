package goals

import (
	"context"
	"errors"
	"fmt"
	"time"

	teamstore "github.com/Pythagora-io/okrtracker/internal/app/store/teams"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Notifier sends the goal-sheet emails. Every send runs after the triggering
// write has committed, in its own failure boundary: a missing manager, a
// deleted user, or a dead SMTP relay only produces a log line and never fails
// the request.
type Notifier struct {
	users    *userstore.Store
	teams    *teamstore.Store
	sender   mailer.Sender
	baseURL  string
	siteName string
	log      *zap.Logger
}

func NewNotifier(users *userstore.Store, teams *teamstore.Store, sender mailer.Sender, baseURL, siteName string, logger *zap.Logger) *Notifier {
	return &Notifier{
		users:    users,
		teams:    teams,
		sender:   sender,
		baseURL:  baseURL,
		siteName: siteName,
		log:      logger,
	}
}

// notifyTimeout bounds one lookup-and-send cycle. Independent of the request
// context so a client disconnect cannot cancel a committed notification.
const notifyTimeout = 15 * time.Second

// GoalsSubmitted emails the owner's manager that goals landed.
func (n *Notifier) GoalsSubmitted(g *models.WeekGoal) {
	n.notifyManager(g, "goals submitted", mailer.BuildGoalsSubmittedEmail)
}

// ResultsSubmitted emails the owner's manager that results landed.
func (n *Notifier) ResultsSubmitted(g *models.WeekGoal) {
	n.notifyManager(g, "results submitted", mailer.BuildResultsSubmittedEmail)
}

func (n *Notifier) notifyManager(g *models.WeekGoal, what string, build func(mailer.GoalNotificationData) mailer.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	owner, mgr, err := n.ownerAndManager(ctx, g.UserID)
	if err != nil {
		n.log.Warn("notification skipped: "+what, zap.String("goal_id", g.ID.Hex()), zap.Error(err))
		return
	}
	if mgr == nil || mgr.ID == owner.ID {
		return
	}

	e := build(mailer.GoalNotificationData{
		SiteName:      n.siteName,
		RecipientName: mgr.DisplayName(),
		ActorName:     owner.DisplayName(),
		WeekOf:        g.WeekStart.Format("Jan 2, 2006"),
		Link:          n.goalLink(g.ID),
	})
	e.To = mgr.Email
	if err := n.sender.Send(ctx, e); err != nil {
		n.log.Warn("notification send failed: "+what, zap.String("to", mgr.Email), zap.Error(err))
	}
}

// CommentAdded routes the comment notification: a comment by someone else
// goes to the sheet owner; the owner commenting on their own sheet notifies
// their manager instead.
func (n *Notifier) CommentAdded(g *models.WeekGoal, c *models.Comment) {
	if c == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	data := mailer.GoalNotificationData{
		SiteName:  n.siteName,
		ActorName: c.UserName,
		WeekOf:    g.WeekStart.Format("Jan 2, 2006"),
		Link:      n.goalLink(g.ID),
	}

	if c.UserID != g.UserID {
		owner, err := n.users.GetByID(ctx, g.UserID)
		if err != nil {
			n.log.Warn("notification skipped: comment", zap.String("goal_id", g.ID.Hex()), zap.Error(err))
			return
		}
		data.RecipientName = owner.DisplayName()
		e := mailer.BuildCommentEmail(data)
		e.To = owner.Email
		if err := n.sender.Send(ctx, e); err != nil {
			n.log.Warn("notification send failed: comment", zap.String("to", owner.Email), zap.Error(err))
		}
		return
	}

	owner, mgr, err := n.ownerAndManager(ctx, g.UserID)
	if err != nil {
		n.log.Warn("notification skipped: comment", zap.String("goal_id", g.ID.Hex()), zap.Error(err))
		return
	}
	if mgr == nil || mgr.ID == owner.ID {
		return
	}
	data.RecipientName = mgr.DisplayName()
	e := mailer.BuildCommentEmail(data)
	e.To = mgr.Email
	if err := n.sender.Send(ctx, e); err != nil {
		n.log.Warn("notification send failed: comment", zap.String("to", mgr.Email), zap.Error(err))
	}
}

// ReplyAdded notifies the original comment author, unless they replied to
// themselves.
func (n *Notifier) ReplyAdded(g *models.WeekGoal, commentID primitive.ObjectID, replierID primitive.ObjectID, replierName string) {
	c := g.FindComment(commentID)
	if c == nil || c.UserID == replierID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	author, err := n.users.GetByID(ctx, c.UserID)
	if err != nil {
		n.log.Warn("notification skipped: reply", zap.String("goal_id", g.ID.Hex()), zap.Error(err))
		return
	}

	e := mailer.BuildReplyEmail(mailer.GoalNotificationData{
		SiteName:      n.siteName,
		RecipientName: author.DisplayName(),
		ActorName:     replierName,
		WeekOf:        g.WeekStart.Format("Jan 2, 2006"),
		Link:          n.goalLink(g.ID),
	})
	e.To = author.Email
	if err := n.sender.Send(ctx, e); err != nil {
		n.log.Warn("notification send failed: reply", zap.String("to", author.Email), zap.Error(err))
	}
}

// ownerAndManager resolves the user → team → manager chain. A user with no
// team, or a team whose manager is gone, yields a nil manager and no error.
func (n *Notifier) ownerAndManager(ctx context.Context, ownerID primitive.ObjectID) (*models.User, *models.User, error) {
	owner, err := n.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading sheet owner: %w", err)
	}
	if owner.TeamID == nil {
		return owner, nil, nil
	}

	team, err := n.teams.GetByID(ctx, *owner.TeamID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return owner, nil, nil
		}
		return nil, nil, fmt.Errorf("loading team: %w", err)
	}

	mgr, err := n.users.GetByID(ctx, team.ManagerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return owner, nil, nil
		}
		return nil, nil, fmt.Errorf("loading manager: %w", err)
	}
	return owner, mgr, nil
}

func (n *Notifier) goalLink(id primitive.ObjectID) string {
	return fmt.Sprintf("%s/goals/%s", n.baseURL, id.Hex())
}
