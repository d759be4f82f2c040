// Package session resolves the authenticated principal of a request into an
// employee or customer profile and decides which page routes it may render.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ErrMissingSessionContext is returned when a session is requested from a
// request that did not pass through the session middleware.
var ErrMissingSessionContext = errors.New("auth session requested outside of the session middleware")

const contextKey = "auth_session"

// Redirect targets
const (
	AdminPath = "/admin"
	LoginPath = "/login"
	HomePath  = "/"
)

// State is the resolution state of a session
type State int

const (
	StateLoading State = iota
	StateEmployee
	StateOther
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmployee:
		return "employee"
	default:
		return "other"
	}
}

// AuthSession is the resolved principal of a request. A zero UserID means the
// request is not authenticated.
type AuthSession struct {
	UserID   uint
	Email    string
	Pending  bool
	Employee *model.Employee
	Customer *model.Customer
}

// Unauthenticated returns a resolved session with no principal
func Unauthenticated() *AuthSession {
	return &AuthSession{}
}

// Authenticated reports whether the session carries a user
func (s *AuthSession) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// IsEmployee reports whether the session resolved to an employee profile
func (s *AuthSession) IsEmployee() bool {
	return s.State() == StateEmployee
}

// State returns the resolution state. A nil session is still loading.
func (s *AuthSession) State() State {
	if s == nil || s.Pending {
		return StateLoading
	}
	if s.Employee != nil {
		return StateEmployee
	}
	return StateOther
}

// Route classifies a page route
type Route int

const (
	RoutePublic Route = iota
	RouteAdmin
)

// DecisionKind is what a route gate does with a request
type DecisionKind int

const (
	DecisionPlaceholder DecisionKind = iota
	DecisionRender
	DecisionRedirect
)

// Decision is the outcome of gating a route
type Decision struct {
	Kind     DecisionKind
	Location string
}

// Decide gates a route for the given session. While the session is loading no
// redirect is decided.
func Decide(sess *AuthSession, route Route) Decision {
	state := sess.State()
	if state == StateLoading {
		return Decision{Kind: DecisionPlaceholder}
	}

	switch route {
	case RouteAdmin:
		if state == StateEmployee {
			return Decision{Kind: DecisionRender}
		}
		if !sess.Authenticated() {
			return Decision{Kind: DecisionRedirect, Location: LoginPath}
		}
		return Decision{Kind: DecisionRedirect, Location: HomePath}
	default:
		if state == StateEmployee {
			return Decision{Kind: DecisionRedirect, Location: AdminPath}
		}
		return Decision{Kind: DecisionRender}
	}
}

// ProfileLookup finds the profiles attached to a user. Absent profiles are
// returned as nil without error.
type ProfileLookup interface {
	EmployeeByUserID(ctx context.Context, userID uint) (*model.Employee, error)
	CustomerByUserID(ctx context.Context, userID uint) (*model.Customer, error)
}

// Resolver turns an authenticated user id into an AuthSession
type Resolver struct {
	lookup ProfileLookup
}

// NewResolver creates a resolver backed by the given lookup
func NewResolver(lookup ProfileLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve looks up the employee profile first; only users without one are
// checked for a customer profile.
func (r *Resolver) Resolve(ctx context.Context, userID uint, email string) (*AuthSession, error) {
	if userID == 0 {
		return Unauthenticated(), nil
	}

	sess := &AuthSession{UserID: userID, Email: email}

	employee, err := r.lookup.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve employee profile: %w", err)
	}
	if employee != nil {
		sess.Employee = employee
		return sess, nil
	}

	customer, err := r.lookup.CustomerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer profile: %w", err)
	}
	sess.Customer = customer
	return sess, nil
}

// GormLookup reads profiles from the database
type GormLookup struct {
	db *gorm.DB
}

// NewGormLookup creates a lookup over the given database
func NewGormLookup(db *gorm.DB) *GormLookup {
	return &GormLookup{db: db}
}

// EmployeeByUserID returns the active employee profile of the user
func (l *GormLookup) EmployeeByUserID(ctx context.Context, userID uint) (*model.Employee, error) {
	var employee model.Employee
	err := l.db.WithContext(ctx).
		Preload("Stores").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// CustomerByUserID returns the customer profile of the user
func (l *GormLookup) CustomerByUserID(ctx context.Context, userID uint) (*model.Customer, error) {
	var customer model.Customer
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// WithSession stores the session in the echo context
func WithSession(c echo.Context, sess *AuthSession) {
	c.Set(contextKey, sess)
}

// FromContext returns the session stored by the session middleware
func FromContext(c echo.Context) (*AuthSession, error) {
	sess, ok := c.Get(contextKey).(*AuthSession)
	if !ok || sess == nil {
		return nil, ErrMissingSessionContext
	}
	return sess, nil
}
