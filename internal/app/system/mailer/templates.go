package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InviteEmailData holds data for the invitation email templates.
type InviteEmailData struct {
	SiteName    string
	InviterName string
	InviteLink  string
	ExpiresIn   string // e.g., "7 days"
}

// BuildInviteEmail creates an invitation email with both HTML and text bodies.
func BuildInviteEmail(data InviteEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("You've been invited to %s", data.SiteName),
		TextBody: buildInviteText(data),
		HTMLBody: buildInviteHTML(data),
	}
}

func buildInviteText(data InviteEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s has invited you to join %s.\n\n", data.InviterName, data.SiteName))
	buf.WriteString("Click this link to set your password and activate your account:\n")
	buf.WriteString(data.InviteLink + "\n\n")
	buf.WriteString(fmt.Sprintf("This invitation expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you were not expecting this invitation, you can safely ignore this email.\n")
	return buf.String()
}

func buildInviteHTML(data InviteEmailData) string {
	tmpl := template.Must(template.New("invite").Parse(inviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// GoalNotificationData covers the manager/owner notifications that fire when
// goals or results are submitted and when comments or replies land.
type GoalNotificationData struct {
	SiteName      string
	RecipientName string
	ActorName     string // who submitted / commented / replied
	WeekOf        string // e.g., "Jan 5, 2026"
	Link          string
}

// BuildGoalsSubmittedEmail notifies a manager that an IC submitted weekly goals.
func BuildGoalsSubmittedEmail(data GoalNotificationData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.RecipientName))
	buf.WriteString(fmt.Sprintf("%s has submitted their goals for the week of %s.\n\n", data.ActorName, data.WeekOf))
	buf.WriteString("View them here:\n" + data.Link + "\n")
	return Email{
		Subject:  fmt.Sprintf("%s submitted goals for the week of %s", data.ActorName, data.WeekOf),
		TextBody: buf.String(),
	}
}

// BuildResultsSubmittedEmail notifies a manager that an IC submitted weekly results.
func BuildResultsSubmittedEmail(data GoalNotificationData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.RecipientName))
	buf.WriteString(fmt.Sprintf("%s has submitted their results for the week of %s.\n\n", data.ActorName, data.WeekOf))
	buf.WriteString("View them here:\n" + data.Link + "\n")
	return Email{
		Subject:  fmt.Sprintf("%s submitted results for the week of %s", data.ActorName, data.WeekOf),
		TextBody: buf.String(),
	}
}

// BuildCommentEmail notifies someone that a comment was left on a goal sheet
// they care about (the owner, or the owner's manager).
func BuildCommentEmail(data GoalNotificationData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.RecipientName))
	buf.WriteString(fmt.Sprintf("%s commented on the goal sheet for the week of %s.\n\n", data.ActorName, data.WeekOf))
	buf.WriteString("View the conversation here:\n" + data.Link + "\n")
	return Email{
		Subject:  fmt.Sprintf("New comment from %s (week of %s)", data.ActorName, data.WeekOf),
		TextBody: buf.String(),
	}
}

// BuildReplyEmail notifies a comment author that someone replied.
func BuildReplyEmail(data GoalNotificationData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.RecipientName))
	buf.WriteString(fmt.Sprintf("%s replied to your comment on the goal sheet for the week of %s.\n\n", data.ActorName, data.WeekOf))
	buf.WriteString("View the conversation here:\n" + data.Link + "\n")
	return Email{
		Subject:  fmt.Sprintf("%s replied to your comment (week of %s)", data.ActorName, data.WeekOf),
		TextBody: buf.String(),
	}
}

// BuildWeeklyReminderEmail nudges an IC to record goals for the new week.
func BuildWeeklyReminderEmail(data GoalNotificationData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.RecipientName))
	buf.WriteString(fmt.Sprintf("It's time to set your goals for the week of %s.\n\n", data.WeekOf))
	buf.WriteString("Record them here:\n" + data.Link + "\n")
	return Email{
		Subject:  fmt.Sprintf("Reminder: set your goals for the week of %s", data.WeekOf),
		TextBody: buf.String(),
	}
}

const inviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>You're Invited</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.InviterName}} has invited you to join {{.SiteName}}.
              </p>

              <p style="margin: 0 0 24px; font-size: 14px; color: #6b7280; text-align: center;">
                Click the button below to set your password and activate your account:
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.InviteLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Accept Invitation
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This invitation expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you were not expecting this invitation, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
