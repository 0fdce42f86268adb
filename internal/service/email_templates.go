package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"firesafety_reminders/internal/model"
)

// ReminderEmail is the input of one inspection or maintenance reminder email.
type ReminderEmail struct {
	Kind          model.DeadlineKind
	Asset         model.Extinguisher
	DueDate       time.Time
	DaysUntilDue  int
	RecipientName string
	CompanyName   string
	DashboardURL  string
	SentAt        time.Time
}

type emailTheme struct {
	Title      string
	Heading    string
	Intro      string
	Closing    string
	HeaderFrom string
	HeaderTo   string
	Button     string
	CardBG     string
	CardBorder string
}

var reminderThemes = map[model.DeadlineKind]emailTheme{
	model.DeadlineInspection: {
		Title:      "Inspection Reminder",
		Heading:    "🔥 Fire Safety Reminder",
		Intro:      "This is a reminder that a fire extinguisher inspection is due soon:",
		Closing:    "Please ensure this inspection is completed before the due date to maintain compliance with fire safety regulations.",
		HeaderFrom: "#7c3aed",
		HeaderTo:   "#5b21b6",
		Button:     "#7c3aed",
		CardBG:     "#f9fafb",
		CardBorder: "#e5e7eb",
	},
	model.DeadlineMaintenance: {
		Title:      "Maintenance Reminder",
		Heading:    "🔧 Maintenance Reminder",
		Intro:      "This is a reminder that scheduled maintenance is due soon for a fire extinguisher:",
		Closing:    "Please schedule maintenance before the due date to ensure continued compliance and safety.",
		HeaderFrom: "#f59e0b",
		HeaderTo:   "#d97706",
		Button:     "#f59e0b",
		CardBG:     "#fef3c7",
		CardBorder: "#fde68a",
	},
}

// Urgency returns the label and accent colour for a day count.
func Urgency(days int) (label, color string) {
	switch {
	case days <= 7:
		return "URGENT", "#ef4444"
	case days <= 14:
		return "Important", "#f59e0b"
	default:
		return "Upcoming", "#3b82f6"
	}
}

// FormatDueDate renders a date like "Monday, 2 January 2006".
func FormatDueDate(t time.Time) string {
	return t.Format("Monday, 2 January 2006")
}

// Render returns the subject and HTML body.
func (e ReminderEmail) Render() (subject, html string, err error) {
	theme, ok := reminderThemes[e.Kind]
	if !ok {
		return "", "", fmt.Errorf("no email template for deadline kind %q", e.Kind)
	}

	label, color := Urgency(e.DaysUntilDue)
	noun := "Inspection"
	if e.Kind == model.DeadlineMaintenance {
		noun = "Maintenance"
	}
	subject = fmt.Sprintf("%s: Fire Extinguisher %s Due in %d Days", label, noun, e.DaysUntilDue)

	sentAt := e.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	var buf bytes.Buffer
	err = reminderTemplate.Execute(&buf, map[string]any{
		"Theme":        theme,
		"Urgency":      label,
		"UrgencyColor": color,
		"Email":        e,
		"DueDate":      FormatDueDate(e.DueDate),
		"Year":         sentAt.Year(),
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s reminder email: %w", e.Kind, err)
	}
	return subject, buf.String(), nil
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Theme.Title}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f3f4f6;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, {{.Theme.HeaderFrom}} 0%, {{.Theme.HeaderTo}} 100%); color: white; padding: 30px; border-radius: 12px 12px 0 0; text-align: center;">
      <h1 style="margin: 0; font-size: 24px;">{{.Theme.Heading}}</h1>
      <p style="margin: 10px 0 0 0; opacity: 0.9;">{{.Email.CompanyName}}</p>
    </div>

    <div style="background: white; padding: 20px; border-left: 4px solid {{.UrgencyColor}};">
      <div style="display: inline-block; background: {{.UrgencyColor}}; color: white; padding: 6px 12px; border-radius: 6px; font-size: 12px; font-weight: bold; text-transform: uppercase;">
        {{.Urgency}}: {{.Email.DaysUntilDue}} Days Remaining
      </div>
    </div>

    <div style="background: white; padding: 30px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
      <p style="margin: 0 0 20px 0; font-size: 16px;">Hi {{.Email.RecipientName}},</p>
      <p style="margin: 0 0 20px 0;">{{.Theme.Intro}}</p>

      <div style="background: {{.Theme.CardBG}}; border: 1px solid {{.Theme.CardBorder}}; border-radius: 8px; padding: 20px; margin: 20px 0;">
        <table style="width: 100%; border-collapse: collapse;">
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-size: 14px;">Extinguisher ID:</td>
            <td style="padding: 8px 0; font-weight: 600; text-align: right;">{{.Email.Asset.ID}}</td>
          </tr>
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-size: 14px;">Location:</td>
            <td style="padding: 8px 0; font-weight: 600; text-align: right;">{{.Email.Asset.Location}}</td>
          </tr>
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-size: 14px;">Building:</td>
            <td style="padding: 8px 0; font-weight: 600; text-align: right;">{{.Email.Asset.Building}}</td>
          </tr>
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-size: 14px;">Due Date:</td>
            <td style="padding: 8px 0; font-weight: 600; text-align: right; color: {{.UrgencyColor}};">{{.DueDate}}</td>
          </tr>
        </table>
      </div>

      <p style="margin: 20px 0;">{{.Theme.Closing}}</p>

      <div style="text-align: center; margin: 30px 0;">
        <a href="{{.Email.DashboardURL}}" style="display: inline-block; background: {{.Theme.Button}}; color: white; padding: 14px 32px; text-decoration: none; border-radius: 8px; font-weight: 600;">
          View Dashboard
        </a>
      </div>
    </div>

    <div style="background: #f9fafb; padding: 20px; border-radius: 0 0 12px 12px; text-align: center; color: #6b7280; font-size: 14px;">
      <p style="margin: 0 0 10px 0;">This is an automated reminder from your Fire Safety Management System.</p>
      <p style="margin: 0; font-size: 12px;">&copy; {{.Year}} {{.Email.CompanyName}}. All rights reserved.</p>
    </div>
  </div>
</body>
</html>
`))
