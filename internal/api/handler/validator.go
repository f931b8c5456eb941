package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
// It only checks request envelopes; field rules live in the services.
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return paramMissing(ve[0].Field())
	}
	return err
}

func paramMissing(key string) error {
	return echo.NewHTTPError(http.StatusBadRequest, "param is missing or the value is empty: "+key)
}

// envelope is implemented by requests that can tell an empty object under
// their key apart from one with members.
type envelope interface {
	blank() bool
}

// bindEnvelope decodes the body into req and checks that its envelope key is
// present and holds a non-empty object. Undecodable bodies are reported as a
// missing key.
func bindEnvelope(c echo.Context, req any, key string) error {
	if err := c.Bind(req); err != nil {
		return paramMissing(key)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if e, ok := req.(envelope); ok && e.blank() {
		return paramMissing(key)
	}
	return nil
}

// memberCount returns the number of members of a JSON object.
func memberCount(data []byte) int {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return 0
	}
	return len(members)
}
