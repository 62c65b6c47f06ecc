package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"
	"io/ioutil"
	"net/http"
	"reflect"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"strings"
	"time"
)

func init() {
	// money goes over the wire as json numbers
	decimal.MarshalJSONWithoutQuotes = true
}

var validate = newValidator()

// newValidator reports json field names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// readBody into json struct
func readBody(r *http.Request, v interface{}) error {
	body, err := ioutil.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return fmt.Errorf("body read: %w", err)
	}

	err = json.Unmarshal(body, v)
	if err != nil {
		return apperr.NewValidationError("body", "malformed json: "+err.Error())
	}

	return nil
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// WriteData in success envelope
func WriteData(w http.ResponseWriter, v interface{}, message string, statusCode int) {
	WriteResponse(w, envelope{Success: true, Data: v, Message: message}, statusCode)
}

// WriteError classifies err and writes it in error envelope.
// Internal errors are logged and never exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.Get(r.Context(), "Handler.Error")

	body := &errorBody{
		Timestamp: time.Now().UTC(),
	}
	if id, ok := hlog.IDFromRequest(r); ok {
		body.RequestID = id.String()
	}

	var statusCode int

	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		statusCode = http.StatusBadRequest
		body.Code = "INVALID_REQUEST"
		body.Message = err.Error()
		body.Details = validationDetails(err)
	case apperr.KindNotUsable:
		statusCode = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Withdrawal method not found"
	case apperr.KindNotFound:
		statusCode = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Resource not found"
	case apperr.KindDuplicateConflict:
		statusCode = http.StatusConflict
		body.Code = "DUPLICATE_WITHDRAWAL"
		body.Message = "You recently withdrew this amount. Are you sure you want to proceed?"
		var de *apperr.DuplicateError
		if errors.As(err, &de) {
			body.Details = map[string]interface{}{
				"amount":             de.Amount,
				"last_withdrawal_at": de.LastWithdrawalAt,
				"allow_override":     de.AllowOverride,
			}
		}
	case apperr.KindInsufficientFunds:
		statusCode = http.StatusUnprocessableEntity
		body.Code = "INSUFFICIENT_BALANCE"
		body.Message = "Insufficient balance for withdrawal"
		var fe *apperr.InsufficientFundsError
		if errors.As(err, &fe) {
			body.Details = map[string]interface{}{
				"requested": fe.Requested,
				"available": fe.Available,
			}
		}
	case apperr.KindTransient:
		statusCode = http.StatusServiceUnavailable
		body.Code = "TEMPORARILY_UNAVAILABLE"
		body.Message = "Service temporarily unavailable, please retry"
		w.Header().Set("Retry-After", "1")
	case apperr.KindUnauthorized:
		statusCode = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	default:
		statusCode = http.StatusInternalServerError
		body.Code = "INTERNAL_ERROR"
		body.Message = "An unexpected error occurred"
	}

	if statusCode >= http.StatusInternalServerError {
		l.Error().Err(err).Str("code", body.Code).Str("request_id", body.RequestID).Send()
	} else {
		l.Debug().Err(err).Str("code", body.Code).Send()
	}

	WriteResponse(w, envelope{Error: body}, statusCode)
}

// WriteResponse formatted in json
func WriteResponse(w http.ResponseWriter, v interface{}, statusCode int) {
	resBody, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(resBody)
}

type ValidationErrors []ValidationError

type ValidationError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
	Value string `json:"value"`
}

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("%s: %s", e[0].Param, e[0].Msg)
}

func (e ValidationErrors) Unwrap() error {
	return apperr.ErrInvalidInput
}

// validateData returns ValidationErrors if v does not pass validation
func validateData(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	res := make(ValidationErrors, 0, len(verrs))
	for _, err := range verrs {
		res = append(res, ValidationError{
			Msg:   fmt.Sprintf("failed on the '%s' rule", err.Tag()),
			Param: err.Field(),
			Value: fmt.Sprintf("%v", err.Value()),
		})
	}

	return res
}

func validationDetails(err error) interface{} {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return map[string]interface{}{"errors": verrs}
	}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		details := map[string]interface{}{"field": ve.Field}
		if ve.Field == "type" {
			details["allowed"] = model.TransactionKinds
		}
		return details
	}

	return nil
}

type ContextKeyUser struct{}

func ReadContextUser(ctx context.Context) (*model.User, error) {
	v := ctx.Value(ContextKeyUser{})
	if user, ok := v.(*model.User); ok {
		return user, nil
	}

	return nil, apperr.ErrUnauthorized
}
