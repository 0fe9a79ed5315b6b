package api

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// Kind classifies a backend failure so callers can branch on structure
// instead of matching message strings.
type Kind string

const (
	// KindValidation: the request itself is bad (client-side check or 400/422).
	KindValidation Kind = "validation"
	// KindAuth: the backend rejected the credentials or the account.
	KindAuth Kind = "auth"
	// KindSessionExpired: a previously working session is no longer accepted.
	KindSessionExpired Kind = "session_expired"
	// KindNetwork: no HTTP response was reached at all.
	KindNetwork Kind = "network"
	// KindServer: the backend failed (5xx).
	KindServer Kind = "server"
	// KindUnknown: anything that does not fit the buckets above.
	KindUnknown Kind = "unknown"
)

// User-facing messages. The storefront is Arabic-localized, so the mapped
// sentences are Arabic; raw statuses only ever appear in the generic
// fallback, parenthesized.
const (
	msgBadRequest         = "طلب غير صالح، يرجى التحقق من البيانات المدخلة"
	msgInvalidCredentials = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	msgAccountDisabled    = "تم تعطيل هذا الحساب، يرجى التواصل مع الدعم"
	msgValidationFailed   = "بعض الحقول غير صالحة، يرجى مراجعتها"
	msgServerError        = "حدث خطأ في الخادم، يرجى المحاولة لاحقًا"
	msgNetworkFailure     = "تعذر الاتصال بالخادم، يرجى التحقق من اتصالك بالإنترنت"
	msgSessionExpired     = "انتهت صلاحية الجلسة، يرجى تسجيل الدخول مرة أخرى"
	msgUnexpectedFmt      = "حدث خطأ غير متوقع (%d)"
)

// Error is the single error type this package returns for backend and
// transport failures. NetworkError distinguishes "nothing answered" from
// "the backend said no"; callers must branch on it (or on Kind), never on
// Message text.
type Error struct {
	Kind         Kind
	StatusCode   int
	Message      string
	FieldErrors  map[string]string
	NetworkError bool
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts an *Error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// NewValidationError builds a client-side validation failure that never
// reached the network.
func NewValidationError(message string, fieldErrors map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, FieldErrors: fieldErrors}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: msgNetworkFailure, NetworkError: true, Err: err}
}

func sessionExpiredError() *Error {
	return &Error{Kind: KindSessionExpired, StatusCode: 401, Message: msgSessionExpired}
}

// apiError maps a non-2xx response to a typed error. protected marks
// endpoints where a 401 means "session no longer accepted" rather than
// "wrong credentials".
func apiError(status int, body []byte, protected bool) *Error {
	switch {
	case status == 400:
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = msgBadRequest
		}
		return &Error{Kind: KindValidation, StatusCode: status, Message: msg, FieldErrors: fieldErrors(body)}
	case status == 401 && protected:
		return sessionExpiredError()
	case status == 401:
		return &Error{Kind: KindAuth, StatusCode: status, Message: msgInvalidCredentials}
	case status == 403:
		return &Error{Kind: KindAuth, StatusCode: status, Message: msgAccountDisabled}
	case status == 422:
		return &Error{Kind: KindValidation, StatusCode: status, Message: msgValidationFailed, FieldErrors: fieldErrors(body)}
	case status >= 500:
		return &Error{Kind: KindServer, StatusCode: status, Message: msgServerError}
	default:
		return &Error{Kind: KindUnknown, StatusCode: status, Message: fmt.Sprintf(msgUnexpectedFmt, status)}
	}
}

// fieldErrors pulls per-field messages out of an error body. The backend is
// not consistent here: sometimes {"errors":{"email":"..."}}, sometimes
// {"errors":[{"field":"email","message":"..."}]}.
func fieldErrors(body []byte) map[string]string {
	raw := gjson.GetBytes(body, "errors")
	if !raw.Exists() {
		return nil
	}

	out := make(map[string]string)
	if raw.IsObject() {
		raw.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = value.String()
			return true
		})
	} else if raw.IsArray() {
		raw.ForEach(func(_, value gjson.Result) bool {
			field := value.Get("field").String()
			if field != "" {
				out[field] = value.Get("message").String()
			}
			return true
		})
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// validationError converts validator.v10 failures into a typed client-side
// validation error.
func validationError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(msgValidationFailed, nil)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return NewValidationError(msgValidationFailed, fields)
}
