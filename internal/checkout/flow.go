// Package checkout drives the order submission flow: pick an address, pick
// a payment method, submit. The flow is a small state machine; a failed
// submission is recoverable and keeps every selection so the user can just
// try again.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a2ztrade/storekit/internal/api"
	"github.com/a2ztrade/storekit/internal/logging"
	"github.com/a2ztrade/storekit/internal/models"
)

// State is the flow position.
type State string

const (
	StateSelectingAddress State = "selecting_address"
	StateSelectingPayment State = "selecting_payment"
	StateReadyToSubmit    State = "ready_to_submit"
	StateSubmitting       State = "submitting"
	StateSucceeded        State = "succeeded"
	StateFailed           State = "failed"
)

// DefaultSubmitTimeout bounds how long a submission may hang before it is
// aborted and reported as a network failure.
const DefaultSubmitTimeout = 30 * time.Second

// ErrSubmitInProgress guards against double submission.
var ErrSubmitInProgress = errors.New("order submission already in progress")

// User-facing validation messages for the guard conditions.
const (
	msgSelectAddress = "يرجى اختيار عنوان التوصيل أولًا"
	msgSelectPayment = "يرجى اختيار طريقة الدفع أولًا"
	msgLoginRequired = "يرجى تسجيل الدخول لإتمام الطلب"
	msgEmptyCart     = "سلة التسوق فارغة"
	msgSubmitFailed  = "تعذر إرسال الطلب، يرجى المحاولة مرة أخرى"
)

// OrderPlacer is the slice of the API client the flow needs.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (string, error)
}

// Session supplies the current token. Submission requires a live session;
// its absence is a validation problem, not a network one.
type Session interface {
	Token(ctx context.Context) string
}

// Flow is one checkout attempt over a fixed cart. Safe for concurrent use,
// though the UI is expected to serialize submissions anyway.
type Flow struct {
	orders  OrderPlacer
	session Session
	logger  logging.Logger
	timeout time.Duration

	mu        sync.Mutex
	state     State
	lines     []models.CartLine
	address   *models.Address
	payment   *models.Payment
	clientRef string
	orderID   string
	lastErr   error
}

// FlowOption customizes a Flow.
type FlowOption func(*Flow)

// WithSubmitTimeout overrides the submission deadline.
func WithSubmitTimeout(d time.Duration) FlowOption {
	return func(f *Flow) { f.timeout = d }
}

// WithFlowLogger sets the logger.
func WithFlowLogger(l logging.Logger) FlowOption {
	return func(f *Flow) { f.logger = l }
}

// NewFlow starts a checkout for the given cart lines.
func NewFlow(orders OrderPlacer, session Session, lines []models.CartLine, opts ...FlowOption) *Flow {
	f := &Flow{
		orders:  orders,
		session: session,
		logger:  logging.NewNopLogger(),
		timeout: DefaultSubmitTimeout,
		state:   StateSelectingAddress,
		lines:   lines,
		// Generated once so a retried submission is recognizable server-side.
		clientRef: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SelectAddress records the delivery address.
func (f *Flow) SelectAddress(addr models.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.address = &addr
	f.advanceLocked()
}

// SelectPayment records the payment method.
func (f *Flow) SelectPayment(p models.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.payment = &p
	f.advanceLocked()
}

// advanceLocked recomputes the pre-submit state from the selections.
func (f *Flow) advanceLocked() {
	if f.state == StateSubmitting || f.state == StateSucceeded {
		return
	}
	switch {
	case f.address == nil:
		f.state = StateSelectingAddress
	case f.payment == nil:
		f.state = StateSelectingPayment
	default:
		f.state = StateReadyToSubmit
	}
}

// Submit places the order. Both selections and a valid session are checked
// before anything touches the network; guard failures surface as validation
// errors with zero backend calls. On backend failure the flow lands in the
// recoverable failed state with all selections intact.
func (f *Flow) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()

	if f.state == StateSubmitting {
		f.mu.Unlock()
		return "", ErrSubmitInProgress
	}

	if guardErr := f.guardLocked(); guardErr != nil {
		f.mu.Unlock()
		return "", guardErr
	}

	token := f.session.Token(ctx)
	if token == "" {
		f.mu.Unlock()
		return "", api.NewValidationError(msgLoginRequired, nil)
	}

	req := api.CreateOrderRequest{
		Address:         *f.address,
		Payment:         *f.payment,
		Lines:           f.lines,
		ClientReference: f.clientRef,
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	submitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	orderID, err := f.orders.CreateOrder(submitCtx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = StateFailed
		f.lastErr = err
		f.logger.Warn(ctx, "order submission failed", "error", err)
		return "", err
	}

	f.state = StateSucceeded
	f.orderID = orderID
	f.logger.Info(ctx, "order placed", "order_id", orderID)
	return orderID, nil
}

func (f *Flow) guardLocked() *api.Error {
	switch {
	case len(f.lines) == 0:
		return api.NewValidationError(msgEmptyCart, nil)
	case f.address == nil:
		return api.NewValidationError(msgSelectAddress, nil)
	case f.payment == nil:
		return api.NewValidationError(msgSelectPayment, nil)
	}
	return nil
}

// State returns the current flow position.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OrderID returns the server-issued order id after a successful submit.
func (f *Flow) OrderID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

// Err returns the failure of the last submission attempt, if any. The
// message of an *api.Error here is user-facing: the backend's own message
// when it sent one, a generic fallback otherwise.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// FailureMessage renders the last failure for display.
func (f *Flow) FailureMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lastErr == nil {
		return ""
	}
	if apiErr, ok := api.AsError(f.lastErr); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgSubmitFailed
}
