// Package templates resolves notification template names to pure render
// functions producing the subject, HTML body and plain-text body of an email.
//
// A Registry is assembled once at startup and never mutated afterwards, so it
// is safe for concurrent use without locking. Looking up a name that was not
// registered fails with ErrTemplateNotFound.
//
// HTML bodies are templ components composed from the small building blocks in
// this package (layout, paragraphs, call-to-action buttons) and rendered to a
// string with Render.
//
// # Usage
//
//	reg := templates.Builtin()
//
//	content, err := reg.Render(ctx, "registration_approved", templates.Vars{
//	    "name":      "ada lovelace",
//	    "login_url": "https://app.example.com/login",
//	})
//	if errors.Is(err, templates.ErrTemplateNotFound) {
//	    // unknown template name
//	}
//
// Custom registries are built from entries:
//
//	reg, err := templates.NewRegistry(
//	    templates.Entry{Name: "digest", Render: renderDigest},
//	)
//
// HTML building blocks live in components.templ; run templ generate after
// editing it.
package templates

//go:generate templ generate
