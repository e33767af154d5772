package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
)

// listings-mirror serves a local, Bandsintown-shaped listings fixture so the
// ingestion pipeline can be demoed offline. Point the API at it with
// GIGHUB_LISTINGS_BASE_URL=http://localhost:9000.
//
// The fixture file maps artist name to a list of raw listings:
//
//	{ "Beach House": [ { "id": "...", "datetime": "...", "venue": {...} } ] }
func main() {
	var (
		addr     = flag.String("addr", ":9000", "listen address")
		dataPath = flag.String("data", "data/listings.json", "fixture JSON path")
	)
	flag.Parse()

	http.HandleFunc("/artists/", func(w http.ResponseWriter, r *http.Request) {
		// /artists/{name}/events
		rest := strings.TrimPrefix(r.URL.Path, "/artists/")
		name, ok := strings.CutSuffix(rest, "/events")
		if !ok || name == "" {
			http.NotFound(w, r)
			return
		}

		b, err := os.ReadFile(*dataPath)
		if err != nil {
			http.Error(w, "cannot read fixture: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var byArtist map[string]json.RawMessage
		if err := json.Unmarshal(b, &byArtist); err != nil {
			http.Error(w, "fixture invalid JSON: "+err.Error(), http.StatusInternalServerError)
			return
		}

		listings, found := byArtist[name]
		if !found {
			// Bandsintown answers an unknown artist with an empty list.
			listings = json.RawMessage("[]")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(listings)
	})

	log.Printf("listings-mirror serving %s on %s", *dataPath, *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
