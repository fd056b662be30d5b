package httpapi

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-evcharger/components/onboarding/queries"
)

// Mount registers the JSON API on a net/http mux under base, using the same
// paths as the go-router adapter.
func (h *Handlers) Mount(mux *http.ServeMux, base string) {
	base = "/" + strings.Trim(base, "/")
	if base == "/" {
		base = ""
	}
	withID := func(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, r.PathValue("id"))
		}
	}
	mux.HandleFunc("POST "+base+"/sessions", h.HandleStart)
	mux.HandleFunc("GET "+base+"/{id}/_state", withID(h.HandleState))
	mux.HandleFunc("POST "+base+"/{id}/draft", withID(h.HandleUpdate))
	mux.HandleFunc("POST "+base+"/{id}/next", withID(h.HandleNext))
	mux.HandleFunc("POST "+base+"/{id}/back", withID(h.HandleBack))
	mux.HandleFunc("POST "+base+"/{id}/connection-test", withID(h.HandleConnectionTest))
	mux.HandleFunc("POST "+base+"/{id}/connection-test/retry", withID(h.HandleRetryConnection))
	mux.HandleFunc("POST "+base+"/{id}/assistance", withID(h.HandleAssistance))
	mux.HandleFunc("POST "+base+"/{id}/commercialization", withID(h.HandleCommercialization))
	mux.HandleFunc("POST "+base+"/{id}/submit", withID(h.HandleSubmit))
	mux.HandleFunc("GET "+base+"/{id}/places", withID(h.HandlePlaces))
	mux.HandleFunc("DELETE "+base+"/{id}", withID(h.HandleClose))
	mux.HandleFunc("GET "+base+"/{id}/payload.pdf", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDocument(w, r, r.PathValue("id"), queries.FormatPDF)
	})
	mux.HandleFunc("GET "+base+"/{id}/payload.xlsx", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDocument(w, r, r.PathValue("id"), queries.FormatXLSX)
	})
}
