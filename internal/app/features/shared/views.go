// Package shared holds the JSON view types the API features have in common,
// so every endpoint renders users, teams, and goal sheets the same way.
package shared

import (
	"time"

	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserView is the wire shape for a user. The password hash and invite token
// never appear here.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	TeamID      *string    `json:"teamId"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewUserView(u *models.User) UserView {
	v := UserView{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.TeamID != nil {
		id := u.TeamID.Hex()
		v.TeamID = &id
	}
	return v
}

func NewUserViews(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out
}

// TeamView is the wire shape for a team.
type TeamView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ManagerID string    `json:"managerId"`
	ICIDs     []string  `json:"icIds"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewTeamView(t *models.Team) TeamView {
	return TeamView{
		ID:        t.ID.Hex(),
		Name:      t.Name,
		ManagerID: t.ManagerID.Hex(),
		ICIDs:     hexIDs(t.ICIDs),
		CreatedAt: t.CreatedAt,
	}
}

func NewTeamViews(teams []models.Team) []TeamView {
	out := make([]TeamView, 0, len(teams))
	for i := range teams {
		out = append(out, NewTeamView(&teams[i]))
	}
	return out
}

// GoalView is the wire shape for a weekly goal sheet.
type GoalView struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"userId"`
	WeekStart          time.Time     `json:"weekStart"`
	WeekEnd            time.Time     `json:"weekEnd"`
	GoalsContent       string        `json:"goalsContent"`
	ResultsContent     string        `json:"resultsContent"`
	Comments           []CommentView `json:"comments"`
	GoalsSubmittedAt   *time.Time    `json:"goalsSubmittedAt,omitempty"`
	ResultsSubmittedAt *time.Time    `json:"resultsSubmittedAt,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// CommentView is the wire shape for an inline comment.
type CommentView struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	UserName        string      `json:"userName"`
	UserRole        string      `json:"userRole"`
	Text            string      `json:"text"`
	HighlightedText string      `json:"highlightedText"`
	Position        int         `json:"position"`
	Replies         []ReplyView `json:"replies"`
	Resolved        bool        `json:"resolved"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// ReplyView is the wire shape for a comment reply.
type ReplyView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewGoalView(g *models.WeekGoal) GoalView {
	v := GoalView{
		ID:                 g.ID.Hex(),
		UserID:             g.UserID.Hex(),
		WeekStart:          g.WeekStart,
		WeekEnd:            g.WeekEnd,
		GoalsContent:       g.GoalsContent,
		ResultsContent:     g.ResultsContent,
		Comments:           make([]CommentView, 0, len(g.Comments)),
		GoalsSubmittedAt:   g.GoalsSubmittedAt,
		ResultsSubmittedAt: g.ResultsSubmittedAt,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
	for i := range g.Comments {
		v.Comments = append(v.Comments, NewCommentView(&g.Comments[i]))
	}
	return v
}

func NewGoalViews(goals []models.WeekGoal) []GoalView {
	out := make([]GoalView, 0, len(goals))
	for i := range goals {
		out = append(out, NewGoalView(&goals[i]))
	}
	return out
}

func NewCommentView(c *models.Comment) CommentView {
	v := CommentView{
		ID:              c.ID.Hex(),
		UserID:          c.UserID.Hex(),
		UserName:        c.UserName,
		UserRole:        c.UserRole,
		Text:            c.Text,
		HighlightedText: c.HighlightedText,
		Position:        c.Position,
		Replies:         make([]ReplyView, 0, len(c.Replies)),
		Resolved:        c.Resolved,
		CreatedAt:       c.CreatedAt,
	}
	for i := range c.Replies {
		v.Replies = append(v.Replies, NewReplyView(&c.Replies[i]))
	}
	return v
}

func NewReplyView(r *models.Reply) ReplyView {
	return ReplyView{
		ID:        r.ID.Hex(),
		UserID:    r.UserID.Hex(),
		UserName:  r.UserName,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
}

// ChatMessageView is the wire shape for one chat turn.
type ChatMessageView struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goalId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewChatMessageView(m *models.ChatMessage) ChatMessageView {
	return ChatMessageView{
		ID:        m.ID.Hex(),
		GoalID:    m.GoalID.Hex(),
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func NewChatMessageViews(msgs []models.ChatMessage) []ChatMessageView {
	out := make([]ChatMessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewChatMessageView(&msgs[i]))
	}
	return out
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
