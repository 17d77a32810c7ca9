package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/squadbid/backend/pkg/errorx"
	"github.com/squadbid/backend/pkg/xcontext"
)

type errorResponse struct {
	Code    errorx.Code `json:"code"`
	Message string      `json:"message"`
}

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		ctx = xcontext.WithConfigs(ctx, router.cfg)
		ctx = xcontext.WithLogger(ctx, router.logger)
		ctx = xcontext.WithDB(ctx, router.db)
		ctx = xcontext.WithTokenEngine(ctx, router.tokenEngine)
		ctx = xcontext.WithHTTPRequest(ctx, r)

		var req Request
		var err error
		switch method {
		case http.MethodGet:
			err = bindQuery(r.URL.Query(), &req)
		case http.MethodPost:
			err = json.NewDecoder(r.Body).Decode(&req)
		}
		if err != nil {
			writeError(w, errorx.New(errorx.BadRequest, "Cannot bind the request"))
			return
		}

		ctx, err = runMiddlewares(ctx, router.befores)
		if err == nil {
			var resp *Response
			resp, err = handler(ctx, &req)
			if err == nil {
				ctx, err = runMiddlewares(ctx, router.afters)
				if err == nil {
					writeJSON(w, http.StatusOK, response{Data: resp})
				}
			}
		}

		if err != nil {
			writeError(w, err)
		}

		for _, closer := range router.closers {
			closer(ctx, err)
		}
	}
}

func runMiddlewares(ctx context.Context, middlewares []MiddlewareFunc) (context.Context, error) {
	for _, m := range middlewares {
		newCtx, err := m(ctx)
		if err != nil {
			return ctx, err
		}

		if newCtx != nil {
			ctx = newCtx
		}
	}

	return ctx, nil
}

func writeError(w http.ResponseWriter, err error) {
	var errx errorx.Error
	if !errors.As(err, &errx) {
		errx = errorx.Unknown
	}

	status := http.StatusBadRequest
	if errx.Code == errorx.Unknown.Code || errx.Code == errorx.Internal {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, response{Error: &errorResponse{Code: errx.Code, Message: errx.Message}})
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// bindQuery fills a struct from url query values using json tags. Only the
// scalar kinds used by GET requests are supported.
func bindQuery(values url.Values, req any) error {
	v := reflect.ValueOf(req).Elem()
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return errors.New("request must be a struct")
	}

	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("json")
		if name == "" || name == "-" {
			continue
		}

		raw := values.Get(name)
		if raw == "" {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(n)
		case reflect.Uint, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return err
			}
			field.SetUint(n)
		case reflect.Float64:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			field.SetFloat(f)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return err
			}
			field.SetBool(b)
		}
	}

	return nil
}
