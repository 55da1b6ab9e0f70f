package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

// MetaRequestID is the meta key carrying the request id, when one was assigned.
const MetaRequestID = "requestId"

// Builder helps construct the JSON envelope shared by every endpoint:
// {"success":bool,"data":...,"error":{...},"meta":{...}}.
type Builder struct {
	ctx     echo.Context
	status  int
	data    any
	err     error
	meta    map[string]any
	headers map[string]string
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered. Errors that are not an
// errorbank.AppError render as internal errors.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithHeader sets a response header when the response is built.
func (b *Builder) WithHeader(key, value string) *Builder {
	if key == "" {
		return b
	}
	if b.headers == nil {
		b.headers = make(map[string]string)
	}
	b.headers[key] = value
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	res := b.ctx.Response()
	for k, v := range b.headers {
		res.Header().Set(k, v)
	}
	if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
		b.WithMeta(MetaRequestID, id)
	}
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	payload := struct {
		Success bool           `json:"success"`
		Data    any            `json:"data,omitempty"`
		Meta    map[string]any `json:"meta,omitempty"`
	}{
		Success: true,
		Data:    b.data,
		Meta:    b.meta,
	}
	return b.ctx.JSON(b.status, payload)
}

type errorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < http.StatusBadRequest {
		status = appErr.StatusCode()
	}
	payload := struct {
		Success bool           `json:"success"`
		Error   errorBody      `json:"error"`
		Meta    map[string]any `json:"meta,omitempty"`
	}{
		Success: false,
		Error: errorBody{
			Kind:    string(appErr.Kind()),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta: b.meta,
	}
	return b.ctx.JSON(status, payload)
}
