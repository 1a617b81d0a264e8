// Package docs publishes JSON Schemas for the request and response bodies.
package docs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category"
	catentity "github.com/ovaphlow/pitchfork/service-movies-go/internal/category/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/movie"
	movieentity "github.com/ovaphlow/pitchfork/service-movies-go/internal/movie/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-movies-go/internal/user/entity"
)

const schemaBase = "https://pitchfork.ovaphlow.dev/schemas/"

var bodies = map[string]any{
	"RegisterRequest": &user.RegisterRequest{},
	"LoginRequest":    &user.LoginRequest{},
	"LoginResult":     &user.LoginResult{},
	"User":            &userentity.PublicView{},
	"Envelope":        &httpx.Envelope{},
	"CategoryRequest": &category.CategoryRequest{},
	"Category":        &catentity.Category{},
	"MovieRequest":    &movie.Input{},
	"Movie":           &movieentity.Movie{},
}

// Names lists the documented bodies in sorted order.
func Names() []string {
	names := make([]string, 0, len(bodies))
	for n := range bodies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Generate reflects every documented body into a schema keyed by name.
func Generate() map[string]*jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true}
	out := make(map[string]*jsonschema.Schema, len(bodies))
	for name, v := range bodies {
		s := r.Reflect(v)
		s.ID = jsonschema.ID(schemaBase + name + ".json")
		s.Title = name
		out[name] = s
	}
	return out
}

// Marshal renders Generate as indented JSON.
func Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(Generate(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schemas: %w", err)
	}
	return data, nil
}

// Handler serves the schemas. They are generated once.
func Handler() http.HandlerFunc {
	data, err := Marshal()
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "schemas unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/schema+json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(data)
	}
}
