// Package api exposes the mail queue over HTTP with a chi router.
//
// Routes under /v1 require "Authorization: Bearer <TRIGGER_TOKEN>":
//
//   - GET|POST /v1/queue/process runs one ProcessQueue call and returns the
//     Report. With a Locker (see pkg/redis) overlapping calls get 409 busy.
//   - POST /v1/messages enqueues a request and answers 202 with its id, or
//     422 with per-field details when validation fails.
//   - GET /v1/messages, /v1/messages/{id}, /v1/queue/stats and
//     /v1/templates are read-only.
//
// /health/live and /health/ready are public.
//
// Every /v1 response uses the envelope {data, meta, error{code, message,
// details}}. Storage errors are logged and reported with a generic message.
//
//	handler, err := api.NewRouter(cfg.TriggerToken,
//		api.WithConfig(cfg),
//		api.WithProcessor(worker),
//		api.WithEnqueuer(enqueuer),
//		api.WithReader(store),
//		api.WithTemplates(registry.Names()...),
//		api.WithLogger(log),
//	)
package api
