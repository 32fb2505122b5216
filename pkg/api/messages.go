package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
	"github.com/dmitrymomot/mailqueue/pkg/validator"
)

type enqueueResponse struct {
	ID uuid.UUID `json:"id"`
}

func (a *api) enqueue(w http.ResponseWriter, r *http.Request) {
	var req mailqueue.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorDetail{Code: codeBadRequest, Message: "request body too large"})
			return
		}
		writeError(w, http.StatusBadRequest, ErrorDetail{Code: codeBadRequest, Message: "invalid JSON body: " + err.Error()})
		return
	}

	id, err := a.enqueuer.Enqueue(r.Context(), req)
	if err != nil {
		if ve := validator.ExtractValidationErrors(err); ve != nil {
			writeError(w, http.StatusUnprocessableEntity, ErrorDetail{
				Code:    codeValidation,
				Message: "request validation failed",
				Details: ve.ByField(),
			})
			return
		}
		writeServerError(w, r, a.log, codeInternal, "failed to enqueue email", err)
		return
	}

	writeData(w, http.StatusAccepted, enqueueResponse{ID: id}, nil)
}

func (a *api) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := mailqueue.ListFilter{Status: mailqueue.Status(q.Get("status"))}

	details := map[string][]string{}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			details[key] = append(details[key], "must be a non-negative integer")
			continue
		}
		*dst = n
	}
	filter, err := filter.Normalize()
	if errors.Is(err, mailqueue.ErrInvalidStatus) {
		details["status"] = append(details["status"], "must be one of pending, processing, sent, failed")
	}
	if len(details) > 0 {
		writeError(w, http.StatusBadRequest, ErrorDetail{Code: codeBadRequest, Message: "invalid query parameters", Details: details})
		return
	}

	items, err := a.reader.ListItems(r.Context(), filter)
	if err != nil {
		writeServerError(w, r, a.log, codeInternal, "failed to list messages", err)
		return
	}
	if items == nil {
		items = []*mailqueue.Item{}
	}

	writeData(w, http.StatusOK, items, map[string]any{
		"limit":  filter.Limit,
		"offset": filter.Offset,
		"count":  len(items),
	})
}

func (a *api) getMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorDetail{
			Code:    codeBadRequest,
			Message: "invalid message id",
			Details: map[string][]string{"id": {"must be a UUID"}},
		})
		return
	}

	item, err := a.reader.GetItem(r.Context(), id)
	switch {
	case errors.Is(err, mailqueue.ErrItemNotFound):
		writeError(w, http.StatusNotFound, ErrorDetail{Code: codeNotFound, Message: "message not found"})
		return
	case err != nil:
		writeServerError(w, r, a.log, codeInternal, "failed to load message", err)
		return
	}

	writeData(w, http.StatusOK, item, nil)
}
