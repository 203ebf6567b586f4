package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-chi/chi/v5"
	oapiruntime "github.com/oapi-codegen/runtime"
)

type keyContextKey struct{}

// requestValidator rejects requests that do not match the API document.
// Routes the document does not describe pass through unchecked.
func (s *Server) requestValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}
	opts := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				s.logger.Warn("request rejected", "path", r.URL.Path, "err", err)
				s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request: " + err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// bindKey binds the org, user and variant path parameters into the request context.
func (s *Server) bindKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var key domain.ProgressKey
		for _, p := range []struct {
			name string
			dest *string
		}{
			{"org", &key.OrganizationID},
			{"user", &key.UserID},
			{"variant", &key.Variant},
		} {
			if err := bindPath(r, p.name, p.dest); err != nil {
				s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), keyContextKey{}, key)))
	})
}

// bindPath decodes a simple-style path parameter into dest.
func bindPath(r *http.Request, name string, dest any) error {
	err := oapiruntime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		oapiruntime.BindStyledParameterOptions{
			ParamLocation: oapiruntime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

func keyFrom(r *http.Request) domain.ProgressKey {
	if key, ok := r.Context().Value(keyContextKey{}).(domain.ProgressKey); ok {
		return key
	}
	return domain.ProgressKey{
		OrganizationID: chi.URLParam(r, "org"),
		UserID:         chi.URLParam(r, "user"),
		Variant:        chi.URLParam(r, "variant"),
	}
}
