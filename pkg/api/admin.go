package api

import (
	"net/http"
	"slices"

	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
)

type statsResponse struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := a.reader.CountByStatus(r.Context())
	if err != nil {
		writeServerError(w, r, a.log, codeInternal, "failed to count messages", err)
		return
	}

	resp := statsResponse{
		Pending:    counts[mailqueue.StatusPending],
		Processing: counts[mailqueue.StatusProcessing],
		Sent:       counts[mailqueue.StatusSent],
		Failed:     counts[mailqueue.StatusFailed],
	}
	resp.Total = resp.Pending + resp.Processing + resp.Sent + resp.Failed
	writeData(w, http.StatusOK, resp, nil)
}

func (a *api) listTemplates(w http.ResponseWriter, _ *http.Request) {
	names := slices.Clone(a.templates)
	slices.Sort(names)
	names = slices.Compact(names)
	if names == nil {
		names = []string{}
	}
	writeData(w, http.StatusOK, names, map[string]any{"count": len(names)})
}
