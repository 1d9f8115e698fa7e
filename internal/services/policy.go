package services

import (
	"time"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
)

// AccessPolicy decides which principals may run elevated operations
// (grading, catalog management, attempt listings).
type AccessPolicy interface {
	IsElevated(principal models.Principal) bool
}

// RolePolicy elevates a fixed set of roles
type RolePolicy struct {
	Elevated []models.UserRole
}

func DefaultAccessPolicy() RolePolicy {
	return RolePolicy{Elevated: []models.UserRole{models.RoleTeacher, models.RoleAdmin}}
}

func (p RolePolicy) IsElevated(principal models.Principal) bool {
	for _, r := range p.Elevated {
		if principal.Role == r {
			return true
		}
	}
	return false
}

type serviceOptions struct {
	policy AccessPolicy
	clock  func() time.Time
}

// Option customises a service
type Option func(*serviceOptions)

func WithAccessPolicy(p AccessPolicy) Option {
	return func(o *serviceOptions) { o.policy = p }
}

// WithClock overrides time.Now, mostly for tests
func WithClock(clock func() time.Time) Option {
	return func(o *serviceOptions) { o.clock = clock }
}

func buildOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		policy: DefaultAccessPolicy(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o serviceOptions) now() time.Time {
	return o.clock().UTC()
}
