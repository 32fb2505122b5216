package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Names of the built-in notification templates.
const (
	RegistrationReceived     = "registration_received"
	RegistrationApproved     = "registration_approved"
	RegistrationRejected     = "registration_rejected"
	AdminNewRegistration     = "admin_new_registration"
	WeeklyReflectionReminder = "weekly_reflection_reminder"
)

// Builtin returns the registry of notifications sent by the application.
func Builtin() *Registry {
	return MustNewRegistry(
		Entry{Name: RegistrationReceived, Render: renderRegistrationReceived},
		Entry{Name: RegistrationApproved, Render: renderRegistrationApproved},
		Entry{Name: RegistrationRejected, Render: renderRegistrationRejected},
		Entry{Name: AdminNewRegistration, Render: renderAdminNewRegistration},
		Entry{Name: WeeklyReflectionReminder, Render: renderWeeklyReflectionReminder},
	)
}

// greeting uses the display name when known.
func greeting(vars Vars) string {
	if name := DisplayName(vars.String("name")); name != "" {
		return "Hi " + name + ","
	}
	return "Hi there,"
}

// build renders the HTML layout and joins text lines with blank lines between them.
func build(ctx context.Context, subject string, body []templ.Component, text []string) (Content, error) {
	html, err := Render(ctx, Layout(subject, body))
	if err != nil {
		return Content{}, err
	}
	return Content{
		Subject: subject,
		HTML:    html,
		Text:    strings.Join(text, "\n\n") + "\n",
	}, nil
}

func renderRegistrationReceived(ctx context.Context, vars Vars) (Content, error) {
	subject := "We received your registration"
	hello := greeting(vars)
	line := "Thanks for signing up. An administrator will review your registration shortly, and we will email you as soon as a decision is made."

	return build(ctx, subject,
		[]templ.Component{Heading(subject), Paragraph(hello), Paragraph(line)},
		[]string{hello, line},
	)
}

func renderRegistrationApproved(ctx context.Context, vars Vars) (Content, error) {
	loginURL, err := vars.Require("login_url")
	if err != nil {
		return Content{}, err
	}

	subject := "Your account has been approved"
	hello := greeting(vars)
	line := "Good news: your registration was approved and your account is ready to use."

	return build(ctx, subject,
		[]templ.Component{Heading(subject), Paragraph(hello), Paragraph(line), Button("Sign in", loginURL)},
		[]string{hello, line, "Sign in: " + loginURL},
	)
}

func renderRegistrationRejected(ctx context.Context, vars Vars) (Content, error) {
	subject := "Update on your registration"
	hello := greeting(vars)
	line := "Unfortunately we could not approve your registration at this time."

	body := []templ.Component{Heading(subject), Paragraph(hello), Paragraph(line)}
	text := []string{hello, line}
	if reason := vars.String("reason"); reason != "" {
		body = append(body, Paragraph("Reason: "+reason))
		text = append(text, "Reason: "+reason)
	}
	if contact := vars.String("support_email"); contact != "" {
		note := "If you think this is a mistake, contact " + contact + "."
		body = append(body, Muted(note))
		text = append(text, note)
	}

	return build(ctx, subject, body, text)
}

func renderAdminNewRegistration(ctx context.Context, vars Vars) (Content, error) {
	email, err := vars.Require("email")
	if err != nil {
		return Content{}, err
	}

	name := DisplayName(vars.String("name"))
	who := email
	if name != "" {
		who = name + " <" + email + ">"
	}
	subject := "New registration: " + vars.StringOr("name", email)
	line := who + " has registered and is waiting for approval."

	body := []templ.Component{Heading("New registration"), Paragraph(line)}
	text := []string{line}
	if reviewURL := vars.String("review_url"); reviewURL != "" {
		body = append(body, Button("Review registration", reviewURL))
		text = append(text, "Review: "+reviewURL)
	}

	return build(ctx, subject, body, text)
}

func renderWeeklyReflectionReminder(ctx context.Context, vars Vars) (Content, error) {
	reflectionURL, err := vars.Require("reflection_url")
	if err != nil {
		return Content{}, err
	}

	subject := "Time for your weekly reflection"
	if week := vars.String("week"); week != "" {
		subject += " (" + week + ")"
	}
	hello := greeting(vars)
	line := "Take a few minutes to look back on your week: what went well, what was hard, and what you want to focus on next."

	return build(ctx, subject,
		[]templ.Component{Heading("Weekly reflection"), Paragraph(hello), Paragraph(line), Button("Write reflection", reflectionURL)},
		[]string{hello, line, "Write your reflection: " + reflectionURL},
	)
}
